package store

import (
	"context"
	"testing"
	"time"
)

// Both implementations must satisfy the same contract.
func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestUpsertMergeCreatesAndMerges(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.UpsertMerge(ctx, "drafts", "d1", map[string]any{"content": "first", "status": "pending"}); err != nil {
				t.Fatalf("first upsert: %v", err)
			}
			if err := st.UpsertMerge(ctx, "drafts", "d1", map[string]any{"status": "approved"}); err != nil {
				t.Fatalf("merge upsert: %v", err)
			}

			doc, err := st.Get(ctx, "drafts", "d1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if doc["content"] != "first" {
				t.Errorf("merge should keep untouched fields, got %v", doc["content"])
			}
			if doc["status"] != "approved" {
				t.Errorf("merge should overwrite given fields, got %v", doc["status"])
			}
		})
	}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := st.Exists(ctx, "items", "missing")
			if err != nil || ok {
				t.Fatalf("missing doc should not exist (ok=%v err=%v)", ok, err)
			}
			if err := st.UpsertMerge(ctx, "items", "i1", map[string]any{"url": "https://x"}); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			ok, err = st.Exists(ctx, "items", "i1")
			if err != nil || !ok {
				t.Fatalf("written doc should exist (ok=%v err=%v)", ok, err)
			}
		})
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			doc, err := st.Get(ctx, "items", "nope")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if doc != nil {
				t.Fatalf("missing doc should be nil, got %v", doc)
			}
		})
	}
}

func TestListFieldAndTimeFilters(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for i, status := range []string{"pending", "approved", "approved"} {
				err := st.UpsertMerge(ctx, "drafts", string(rune('a'+i)), map[string]any{
					"status":     status,
					"created_at": base.AddDate(0, 0, i).Format(time.RFC3339),
				})
				if err != nil {
					t.Fatalf("seed: %v", err)
				}
			}

			approved, err := st.List(ctx, "drafts", Query{FieldEquals: map[string]string{"status": "approved"}})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(approved) != 2 {
				t.Fatalf("expected 2 approved, got %d", len(approved))
			}

			recent, err := st.List(ctx, "drafts", Query{
				TimeField: "created_at",
				Since:     base.AddDate(0, 0, 1),
			})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(recent) != 2 {
				t.Fatalf("expected 2 docs since day 2, got %d", len(recent))
			}

			windowed, err := st.List(ctx, "drafts", Query{
				TimeField: "created_at",
				Since:     base,
				Until:     base.AddDate(0, 0, 1),
			})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(windowed) != 2 {
				t.Fatalf("expected 2 docs inside the window, got %d", len(windowed))
			}

			limited, err := st.List(ctx, "drafts", Query{Limit: 1})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(limited) != 1 {
				t.Fatalf("limit should cap results, got %d", len(limited))
			}
		})
	}
}

func TestListEmptyCollection(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			docs, err := st.List(ctx, "nothing", Query{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(docs) != 0 {
				t.Fatalf("empty collection should list nothing, got %d", len(docs))
			}
		})
	}
}
