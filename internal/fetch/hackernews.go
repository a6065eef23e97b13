package fetch

import (
	"context"
	"encoding/json"
	"fmt"
)

const (
	hnTopStoriesURL = "https://hacker-news.firebaseio.com/v0/topstories.json"
	hnItemURL       = "https://hacker-news.firebaseio.com/v0/item/%d.json"
	hnScanDepth     = 60
	hnMaxItems      = 15
)

type hnStory struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
	By    string `json:"by"`
	Type  string `json:"type"`
}

// HackerNews walks the top stories and keeps AI-related ones.
type HackerNews struct {
	client  *Client
	filter  *KeywordFilter
	baseURL string
	itemURL string
}

func NewHackerNews(client *Client, filter *KeywordFilter) *HackerNews {
	return &HackerNews{client: client, filter: filter, baseURL: hnTopStoriesURL, itemURL: hnItemURL}
}

func (h *HackerNews) Name() string { return "hackernews" }

func (h *HackerNews) Fetch(ctx context.Context) Result {
	var ids []int
	if err := h.getJSON(ctx, h.baseURL, &ids); err != nil {
		return Result{Source: h.Name(), Err: err}
	}
	if len(ids) > hnScanDepth {
		ids = ids[:hnScanDepth]
	}

	var items []Item
	for _, id := range ids {
		if len(items) >= hnMaxItems {
			break
		}
		var story hnStory
		if err := h.getJSON(ctx, fmt.Sprintf(h.itemURL, id), &story); err != nil {
			continue
		}
		if story.Type != "story" || story.Title == "" {
			continue
		}
		url := story.URL
		if url == "" {
			url = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)
		}
		item := Item{
			URL:      url,
			Title:    story.Title,
			Source:   h.Name(),
			Metadata: map[string]any{"score": story.Score, "by": story.By, "hn_id": story.ID},
		}
		if h.filter.Matches(item) {
			items = append(items, item)
		}
	}
	return Result{Source: h.Name(), Items: items}
}

func (h *HackerNews) getJSON(ctx context.Context, url string, out any) error {
	body, err := h.client.Get(ctx, url, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}
