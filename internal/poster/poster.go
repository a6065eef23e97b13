// Package poster publishes approved posts to X via the v2 API with
// OAuth 1.0a user-context signing.
package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultAPIURL = "https://api.x.com/2/tweets"
	postURLFormat = "https://x.com/i/status/%s"
)

// Credentials holds the four OAuth 1.0a values the posting API requires.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// IsConfigured reports whether all four values are present.
func (c Credentials) IsConfigured() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// Result is the outcome of one posting attempt.
type Result struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client posts content to the platform.
type Client struct {
	creds      Credentials
	hardLimit  int
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithAPIURL(url string) Option {
	return func(c *Client) { c.apiURL = url }
}

func NewClient(creds Credentials, hardLimit int, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		creds:      creds,
		hardLimit:  hardLimit,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) IsConfigured() bool { return c.creds.IsConfigured() }

// Post publishes content. Text over the platform hard limit is rejected
// before any network call.
func (c *Client) Post(ctx context.Context, text string) Result {
	if n := len([]rune(text)); n > c.hardLimit {
		return Result{Success: false, Error: fmt.Sprintf("post exceeds %d chars (%d)", c.hardLimit, n)}
	}
	if !c.creds.IsConfigured() {
		return Result{Success: false, Error: "posting credentials not configured"}
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", oauth1Header(c.creds, http.MethodPost, c.apiURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("posting failed", "error", err)
		return Result{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("posting rejected", "status", resp.StatusCode, "body", string(body))
		return Result{Success: false, Error: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body))}
	}

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.Data.ID == "" {
		return Result{Success: false, Error: "response missing post id"}
	}

	c.log.Info("post published", "post_id", created.Data.ID)
	return Result{
		Success: true,
		PostID:  created.Data.ID,
		URL:     fmt.Sprintf(postURLFormat, created.Data.ID),
	}
}
