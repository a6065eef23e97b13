package fetch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mmcdole/gofeed"
)

const arxivAPIURL = "https://export.arxiv.org/api/query"

// DefaultArxivQuery covers the agent/retrieval corners of cs.AI and cs.CL.
const DefaultArxivQuery = `cat:cs.AI AND (abs:"agent" OR abs:"retrieval" OR abs:"evaluation")`

// Arxiv pulls recent papers from the arXiv Atom API.
type Arxiv struct {
	client  *Client
	baseURL string
	query   string
	limit   int
}

func NewArxiv(client *Client, query string) *Arxiv {
	if query == "" {
		query = DefaultArxivQuery
	}
	return &Arxiv{client: client, baseURL: arxivAPIURL, query: query, limit: 10}
}

func (a *Arxiv) Name() string { return "arxiv" }

func (a *Arxiv) Fetch(ctx context.Context) Result {
	params := url.Values{}
	params.Set("search_query", a.query)
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	params.Set("max_results", fmt.Sprintf("%d", a.limit))

	body, err := a.client.Get(ctx, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Result{Source: a.Name(), Err: err}
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return Result{Source: a.Name(), Err: fmt.Errorf("parsing arxiv feed: %w", err)}
	}

	var items []Item
	for _, entry := range feed.Items {
		if entry.Link == "" || entry.Title == "" {
			continue
		}
		var authors []string
		for _, person := range entry.Authors {
			authors = append(authors, person.Name)
		}
		items = append(items, Item{
			URL:         entry.Link,
			Title:       entry.Title,
			Source:      a.Name(),
			Description: entry.Description,
			Metadata:    map[string]any{"authors": authors, "published": entry.Published},
		})
	}
	return Result{Source: a.Name(), Items: items}
}
