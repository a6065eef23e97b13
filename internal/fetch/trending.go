package fetch

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const trendingURL = "https://github.com/trending?since=daily"

// GitHubTrending scrapes the GitHub trending page and keeps AI-related
// repositories.
type GitHubTrending struct {
	client *Client
	filter *KeywordFilter
	limit  int
}

func NewGitHubTrending(client *Client, filter *KeywordFilter) *GitHubTrending {
	return &GitHubTrending{client: client, filter: filter, limit: 10}
}

func (g *GitHubTrending) Name() string { return "github" }

func (g *GitHubTrending) Fetch(ctx context.Context) Result {
	return g.fetchFrom(ctx, trendingURL)
}

func (g *GitHubTrending) fetchFrom(ctx context.Context, pageURL string) Result {
	body, err := g.client.Get(ctx, pageURL, nil)
	if err != nil {
		return Result{Source: g.Name(), Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{Source: g.Name(), Err: fmt.Errorf("parsing trending page: %w", err)}
	}

	var items []Item
	doc.Find("article.Box-row").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Find("h2 a").Attr("href")
		if !ok {
			return
		}
		repo := strings.TrimPrefix(strings.TrimSpace(href), "/")
		desc := strings.TrimSpace(sel.Find("p").First().Text())
		stars := strings.TrimSpace(sel.Find("a[href$='/stargazers']").First().Text())

		items = append(items, Item{
			URL:         "https://github.com/" + repo,
			Title:       repo,
			Source:      g.Name(),
			Description: desc,
			Metadata:    map[string]any{"stars": stars},
		})
	})

	items = g.filter.Apply(items)
	if len(items) > g.limit {
		items = items[:g.limit]
	}
	return Result{Source: g.Name(), Items: items}
}
