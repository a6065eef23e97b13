package signal

import (
	"fmt"
	"strings"
	"time"
)

// SignalSource identifies the upstream feed a signal item was collected from.
type SignalSource string

const (
	SourceGitHub      SignalSource = "github"
	SourceHackerNews  SignalSource = "hackernews"
	SourceReddit      SignalSource = "reddit"
	SourceProductHunt SignalSource = "producthunt"
	SourceArxiv       SignalSource = "arxiv"
	SourceRSS         SignalSource = "rss"
)

// ParseSource maps a raw source tag to a known SignalSource, defaulting to RSS.
func ParseSource(raw string) SignalSource {
	switch SignalSource(strings.ToLower(strings.TrimSpace(raw))) {
	case SourceGitHub:
		return SourceGitHub
	case SourceHackerNews:
		return SourceHackerNews
	case SourceReddit:
		return SourceReddit
	case SourceProductHunt:
		return SourceProductHunt
	case SourceArxiv:
		return SourceArxiv
	default:
		return SourceRSS
	}
}

// Topic enumerates the relevance topics the ranker scores against.
type Topic string

const (
	TopicAIAgents       Topic = "ai_agents"
	TopicRAG            Topic = "rag"
	TopicEvalFrameworks Topic = "eval_frameworks"
	TopicDeployments    Topic = "deployments"
	TopicDBAwareAgents  Topic = "db_aware_agents"
)

// ParseTopic returns the matching Topic or false for unknown values.
func ParseTopic(raw string) (Topic, bool) {
	switch t := Topic(strings.ToLower(strings.TrimSpace(raw))); t {
	case TopicAIAgents, TopicRAG, TopicEvalFrameworks, TopicDeployments, TopicDBAwareAgents:
		return t, true
	}
	return "", false
}

// SignalItem is a normalized piece of collected content. Its identity is
// derived from the URL, so repeated collections of the same link collapse
// to one record.
type SignalItem struct {
	URL         string         `json:"url"`
	Title       string         `json:"title"`
	Source      SignalSource   `json:"source"`
	Description string         `json:"description"`
	CollectedAt time.Time      `json:"collected_at"`
	Metadata    map[string]any `json:"metadata"`
}

// NewSignalItem validates and normalizes a collected item.
func NewSignalItem(url, title string, source SignalSource, description string, metadata map[string]any) (SignalItem, error) {
	url = strings.TrimSpace(url)
	title = strings.TrimSpace(title)
	if url == "" {
		return SignalItem{}, fmt.Errorf("signal item: url must not be empty")
	}
	if title == "" {
		return SignalItem{}, fmt.Errorf("signal item: title must not be empty")
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return SignalItem{
		URL:         url,
		Title:       title,
		Source:      source,
		Description: description,
		CollectedAt: time.Now().UTC(),
		Metadata:    metadata,
	}, nil
}

// ItemID returns the fingerprint identity used for dedup and storage.
func (it SignalItem) ItemID() string {
	return Fingerprint(it.URL)
}

// Fields flattens the item into a storable document.
func (it SignalItem) Fields() map[string]any {
	return map[string]any{
		"item_id":      it.ItemID(),
		"url":          it.URL,
		"title":        it.Title,
		"source":       string(it.Source),
		"description":  it.Description,
		"collected_at": it.CollectedAt.Format(time.RFC3339),
		"metadata":     it.Metadata,
	}
}

// ScoredItem is a SignalItem after relevance scoring. It is transient:
// produced and consumed within one pipeline run, never persisted on its own.
type ScoredItem struct {
	ItemID         string       `json:"item_id"`
	URL            string       `json:"url"`
	Title          string       `json:"title"`
	Source         SignalSource `json:"source"`
	Description    string       `json:"description"`
	RelevanceScore float64      `json:"relevance_score"`
	MatchedTopics  []Topic      `json:"matched_topics"`
	Reasoning      string       `json:"reasoning"`
	ScoredAt       time.Time    `json:"scored_at"`
}

// DraftStatus is the review state of a draft post.
type DraftStatus string

const (
	StatusPending  DraftStatus = "pending"
	StatusApproved DraftStatus = "approved"
	StatusRejected DraftStatus = "rejected"
)

// ParseDraftStatus validates a raw status string.
func ParseDraftStatus(raw string) (DraftStatus, error) {
	switch s := DraftStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	}
	return "", fmt.Errorf("invalid draft status %q", raw)
}

// DraftPost is a generated candidate post awaiting human review.
type DraftPost struct {
	DraftID      string      `json:"draft_id"`
	ItemID       string      `json:"item_id"`
	Variant      int         `json:"variant"`
	Content      string      `json:"content"`
	Status       DraftStatus `json:"status"`
	QualityScore float64     `json:"quality_score"`
	QualityNotes string      `json:"quality_notes"`
	HumanLines   string      `json:"human_lines"`
	CreatedAt    time.Time   `json:"created_at"`
	ReviewedAt   *time.Time  `json:"reviewed_at,omitempty"`
	ReviewNotes  string      `json:"review_notes"`
}

// NewDraftPost builds a pending draft with a deterministic identity derived
// from (item_id, variant), so reruns over the same URL upsert rather than
// duplicate.
func NewDraftPost(itemID string, variant int, content string) (DraftPost, error) {
	if variant != 1 && variant != 2 {
		return DraftPost{}, fmt.Errorf("draft variant must be 1 or 2, got %d", variant)
	}
	if strings.TrimSpace(itemID) == "" {
		return DraftPost{}, fmt.Errorf("draft requires an item id")
	}
	return DraftPost{
		DraftID:   DeriveDraftID(itemID, variant),
		ItemID:    itemID,
		Variant:   variant,
		Content:   content,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ValidateHumanLines rejects signature blocks of more than two non-blank lines.
func ValidateHumanLines(lines string) error {
	var count int
	for _, line := range strings.Split(strings.TrimSpace(lines), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	if count > 2 {
		return fmt.Errorf("maximum 2 human signature lines allowed, got %d", count)
	}
	return nil
}

// Fields flattens the draft into a storable document.
func (d DraftPost) Fields() map[string]any {
	fields := map[string]any{
		"draft_id":      d.DraftID,
		"item_id":       d.ItemID,
		"variant":       d.Variant,
		"content":       d.Content,
		"status":        string(d.Status),
		"quality_score": d.QualityScore,
		"quality_notes": d.QualityNotes,
		"human_lines":   d.HumanLines,
		"created_at":    d.CreatedAt.Format(time.RFC3339),
		"review_notes":  d.ReviewNotes,
	}
	if d.ReviewedAt != nil {
		fields["reviewed_at"] = d.ReviewedAt.Format(time.RFC3339)
	}
	return fields
}

// DraftFromFields rebuilds a draft from a stored document.
func DraftFromFields(doc map[string]any) (DraftPost, error) {
	draft := DraftPost{
		DraftID:      asString(doc["draft_id"]),
		ItemID:       asString(doc["item_id"]),
		Variant:      int(asFloat(doc["variant"])),
		Content:      asString(doc["content"]),
		QualityScore: asFloat(doc["quality_score"]),
		QualityNotes: asString(doc["quality_notes"]),
		HumanLines:   asString(doc["human_lines"]),
		ReviewNotes:  asString(doc["review_notes"]),
	}
	status, err := ParseDraftStatus(asString(doc["status"]))
	if err != nil {
		return DraftPost{}, fmt.Errorf("draft %s: %w", draft.DraftID, err)
	}
	draft.Status = status
	if draft.DraftID == "" {
		return DraftPost{}, fmt.Errorf("draft document missing draft_id")
	}
	if ts, err := time.Parse(time.RFC3339, asString(doc["created_at"])); err == nil {
		draft.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339, asString(doc["reviewed_at"])); err == nil {
		draft.ReviewedAt = &ts
	}
	return draft, nil
}

// QualityCheckResult is the gate's verdict for one draft.
type QualityCheckResult struct {
	DraftID     string    `json:"draft_id"`
	Passed      bool      `json:"passed"`
	Score       float64   `json:"score"`
	Issues      []string  `json:"issues"`
	Suggestions []string  `json:"suggestions"`
	CheckedAt   time.Time `json:"checked_at"`
}

// ScheduleEntry assigns an approved draft to a calendar slot. It is a derived
// view over approved drafts and is never persisted itself.
type ScheduleEntry struct {
	DraftID       string `json:"draft_id"`
	ItemID        string `json:"item_id"`
	Content       string `json:"content"`
	HumanLines    string `json:"human_lines"`
	ScheduledDay  string `json:"scheduled_day"`
	ScheduledDate string `json:"scheduled_date"`
}

// RunResult summarizes one pipeline execution. An empty Errors list is the
// only success signal; partial progress is always reported via the counts.
type RunResult struct {
	RunID               string    `json:"run_id"`
	StartedAt           time.Time `json:"started_at"`
	CompletedAt         time.Time `json:"completed_at"`
	ItemsCollected      int       `json:"items_collected"`
	ItemsShortlisted    int       `json:"items_shortlisted"`
	DraftsGenerated     int       `json:"drafts_generated"`
	DraftsPassedQuality int       `json:"drafts_passed_quality"`
	Errors              []string  `json:"errors"`
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return 0
}
