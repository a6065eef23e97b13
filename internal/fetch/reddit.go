package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultSubreddits are polled when none are configured.
var DefaultSubreddits = []string{"MachineLearning", "LocalLLaMA", "LangChain"}

const redditPerSub = 10

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title        string  `json:"title"`
	Permalink    string  `json:"permalink"`
	URL          string  `json:"url"`
	Selftext     string  `json:"selftext"`
	Score        int     `json:"score"`
	NumComments  int     `json:"num_comments"`
	Stickied     bool    `json:"stickied"`
	LinkFlair    string  `json:"link_flair_text"`
	UpvoteRatio  float64 `json:"upvote_ratio"`
	Subreddit    string  `json:"subreddit"`
	Author       string  `json:"author"`
	CreatedUTC   float64 `json:"created_utc"`
}

// Reddit reads the hot listing of each configured subreddit, skipping
// stickied posts and meme flairs.
type Reddit struct {
	client     *Client
	subreddits []string
	baseURL    string
}

func NewReddit(client *Client, subreddits []string) *Reddit {
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	return &Reddit{client: client, subreddits: subreddits, baseURL: "https://www.reddit.com"}
}

func (r *Reddit) Name() string { return "reddit" }

func (r *Reddit) Fetch(ctx context.Context) Result {
	var items []Item
	var lastErr error
	failed := 0

	for _, sub := range r.subreddits {
		url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.baseURL, sub, redditPerSub*2)
		body, err := r.client.Get(ctx, url, nil)
		if err != nil {
			lastErr = err
			failed++
			continue
		}
		var listing redditListing
		if err := json.Unmarshal(body, &listing); err != nil {
			lastErr = fmt.Errorf("decoding r/%s listing: %w", sub, err)
			failed++
			continue
		}

		count := 0
		for _, child := range listing.Data.Children {
			if count >= redditPerSub {
				break
			}
			post := child.Data
			if post.Stickied || post.Title == "" {
				continue
			}
			if flair := strings.ToLower(post.LinkFlair); strings.Contains(flair, "meme") || strings.Contains(flair, "funny") {
				continue
			}
			items = append(items, Item{
				URL:         r.baseURL + post.Permalink,
				Title:       post.Title,
				Source:      r.Name(),
				Description: post.Selftext,
				Metadata: map[string]any{
					"subreddit":    post.Subreddit,
					"score":        post.Score,
					"num_comments": post.NumComments,
					"external_url": post.URL,
				},
			})
			count++
		}
	}

	if failed == len(r.subreddits) && lastErr != nil {
		return Result{Source: r.Name(), Err: lastErr}
	}
	return Result{Source: r.Name(), Items: items}
}
