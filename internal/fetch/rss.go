package fetch

import (
	"context"

	"github.com/mmcdole/gofeed"
)

// DefaultFeeds are the curated engineering blogs polled when none are
// configured.
var DefaultFeeds = []string{
	"https://blog.langchain.dev/rss/",
	"https://huggingface.co/blog/feed.xml",
	"https://www.anthropic.com/rss.xml",
	"https://openai.com/blog/rss.xml",
}

const rssPerFeed = 5

// RSS polls a curated list of blog feeds. A single bad feed is skipped; the
// source only errors when every feed fails.
type RSS struct {
	client *Client
	feeds  []string
}

func NewRSS(client *Client, feeds []string) *RSS {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	return &RSS{client: client, feeds: feeds}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) Fetch(ctx context.Context) Result {
	var items []Item
	var lastErr error
	failed := 0

	for _, feedURL := range r.feeds {
		body, err := r.client.Get(ctx, feedURL, nil)
		if err != nil {
			lastErr = err
			failed++
			continue
		}
		feed, err := gofeed.NewParser().ParseString(string(body))
		if err != nil {
			lastErr = err
			failed++
			continue
		}

		count := 0
		for _, entry := range feed.Items {
			if count >= rssPerFeed {
				break
			}
			if entry.Link == "" || entry.Title == "" {
				continue
			}
			items = append(items, Item{
				URL:         entry.Link,
				Title:       entry.Title,
				Source:      r.Name(),
				Description: entry.Description,
				Metadata:    map[string]any{"feed": feed.Title, "published": entry.Published},
			})
			count++
		}
	}

	if failed == len(r.feeds) && lastErr != nil {
		return Result{Source: r.Name(), Err: lastErr}
	}
	return Result{Source: r.Name(), Items: items}
}
