package fetch

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

const (
	productHuntFeedURL = "https://www.producthunt.com/feed"
	phMaxItems         = 10
)

// ProductHunt reads the public launch feed and keeps AI-related products.
type ProductHunt struct {
	client  *Client
	filter  *KeywordFilter
	feedURL string
}

func NewProductHunt(client *Client, filter *KeywordFilter) *ProductHunt {
	return &ProductHunt{client: client, filter: filter, feedURL: productHuntFeedURL}
}

func (p *ProductHunt) Name() string { return "producthunt" }

func (p *ProductHunt) Fetch(ctx context.Context) Result {
	body, err := p.client.Get(ctx, p.feedURL, nil)
	if err != nil {
		return Result{Source: p.Name(), Err: err}
	}
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return Result{Source: p.Name(), Err: fmt.Errorf("parsing product hunt feed: %w", err)}
	}

	var items []Item
	for _, entry := range feed.Items {
		if len(items) >= phMaxItems {
			break
		}
		if entry.Link == "" || entry.Title == "" {
			continue
		}
		item := Item{
			URL:         entry.Link,
			Title:       entry.Title,
			Source:      p.Name(),
			Description: entry.Description,
			Metadata:    map[string]any{"published": entry.Published},
		}
		if p.filter.Matches(item) {
			items = append(items, item)
		}
	}
	return Result{Source: p.Name(), Items: items}
}
