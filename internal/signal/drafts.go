package signal

import (
	"context"
	"sort"
	"time"

	"signalpost/internal/store"
)

// ApprovedDrafts loads approved drafts ordered by creation time so scheduling
// over them is deterministic.
func ApprovedDrafts(ctx context.Context, st store.Store) ([]DraftPost, error) {
	docs, err := st.List(ctx, CollectionDrafts, store.Query{
		FieldEquals: map[string]string{"status": string(StatusApproved)},
	})
	if err != nil {
		return nil, err
	}
	var drafts []DraftPost
	for _, doc := range docs {
		draft, err := DraftFromFields(doc)
		if err != nil {
			continue
		}
		drafts = append(drafts, draft)
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.Before(drafts[j].CreatedAt)
	})
	return drafts, nil
}

// ItemsCollectedBetween lists stored signal items whose collection time falls
// inside [since, until]. Zero bounds are open.
func ItemsCollectedBetween(ctx context.Context, st store.Store, since, until time.Time, limit int) ([]map[string]any, error) {
	return st.List(ctx, CollectionItems, store.Query{
		TimeField: "collected_at",
		Since:     since,
		Until:     until,
		Limit:     limit,
	})
}
