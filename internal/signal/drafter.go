package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"signalpost/internal/llm"
)

// DraftContext carries the sanitized fields a generation call needs.
type DraftContext struct {
	ItemID        string  `json:"item_id"`
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Description   string  `json:"description"`
	Source        string  `json:"source"`
	MatchedTopics []Topic `json:"matched_topics"`
}

// LengthCheck reports whether a text fits the posting limit.
type LengthCheck struct {
	CharCount int  `json:"char_count"`
	Fits      bool `json:"fits"`
}

// PrepareContext extracts and re-sanitizes the fields needed for drafting.
// Malformed input (blank title or URL) is rejected.
func PrepareContext(item ScoredItem) (DraftContext, error) {
	title := Sanitize(item.Title, DefaultSanitizeMax)
	url := strings.TrimSpace(item.URL)
	if title == "" || url == "" {
		return DraftContext{}, fmt.Errorf("drafting context requires title and url (item %q)", item.ItemID)
	}
	return DraftContext{
		ItemID:        item.ItemID,
		Title:         title,
		URL:           url,
		Description:   Sanitize(item.Description, descriptionCap),
		Source:        string(item.Source),
		MatchedTopics: item.MatchedTopics,
	}, nil
}

// ValidateLength checks a draft against the platform's hard character limit.
func ValidateLength(text string, limit int) LengthCheck {
	count := len([]rune(text))
	return LengthCheck{CharCount: count, Fits: count <= limit}
}

// Drafter turns shortlisted items into post drafts. Generation is delegated;
// the drafter owns context preparation, the exactly-two-variants contract, and
// per-variant length validation.
type Drafter struct {
	gen       llm.Generator
	opts      llm.Options
	styleMin  int
	styleMax  int
	hardLimit int
	log       *slog.Logger
}

// NewDrafter wires a drafter with its generation settings and length contracts.
func NewDrafter(gen llm.Generator, opts llm.Options, styleMin, styleMax, hardLimit int, log *slog.Logger) *Drafter {
	if log == nil {
		log = slog.Default()
	}
	return &Drafter{
		gen:       gen,
		opts:      opts,
		styleMin:  styleMin,
		styleMax:  styleMax,
		hardLimit: hardLimit,
		log:       log,
	}
}

// Generate produces exactly two pending draft variants for one shortlisted
// item. Each variant is independently length-validated before being returned;
// any shortfall fails the whole item so the orchestrator can record it.
func (d *Drafter) Generate(ctx context.Context, item ScoredItem) ([]DraftPost, error) {
	if d.gen == nil {
		return nil, fmt.Errorf("drafter: no generator configured")
	}

	dctx, err := PrepareContext(item)
	if err != nil {
		return nil, err
	}

	out, err := d.gen.Generate(ctx, d.prompt(dctx), d.opts)
	if err != nil {
		return nil, fmt.Errorf("draft generation for item %s: %w", dctx.ItemID, err)
	}

	byVariant := map[int]string{}
	for _, doc := range DecodeObjects(out) {
		variant := int(asFloat(doc["variant"]))
		content := strings.TrimSpace(asString(doc["content"]))
		if (variant != 1 && variant != 2) || content == "" {
			continue
		}
		if _, dup := byVariant[variant]; dup {
			continue
		}
		byVariant[variant] = content
	}

	drafts := make([]DraftPost, 0, 2)
	for variant := 1; variant <= 2; variant++ {
		content, ok := byVariant[variant]
		if !ok {
			return nil, fmt.Errorf("draft generation for item %s: variant %d missing", dctx.ItemID, variant)
		}
		if check := ValidateLength(content, d.hardLimit); !check.Fits {
			return nil, fmt.Errorf("draft generation for item %s: variant %d is %d chars, over the %d limit",
				dctx.ItemID, variant, check.CharCount, d.hardLimit)
		}
		draft, err := NewDraftPost(dctx.ItemID, variant, content)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}

	d.log.Debug("drafted item", "item_id", dctx.ItemID, "variants", len(drafts))
	return drafts, nil
}

func (d *Drafter) prompt(dctx DraftContext) string {
	ctxJSON, _ := json.MarshalIndent(dctx, "", "  ")

	return fmt.Sprintf(`You are an AI engineer who shares insights on social media. You write like a
thoughtful builder, not a content marketer.

Write exactly 2 draft post variants for the item below, approaching the topic
from DIFFERENT angles (e.g. one practical, one opinion-based).

Rules:
- Do NOT include URLs or links; the link is attached separately when posting.
- Write YOUR take: an insight, a question, a practical angle. Do not just
  describe what the link is.
- Length: minimum %d characters, maximum %d. Use the space for real depth.
- Each post MUST include at least one of: a concrete use case, an experiment
  readers can try, a practical workflow, or a specific tradeoff/limitation.
- No generic hype ("game-changer", "revolutionary", "excited to share").
- No fabricated metrics or claims not present in the source; hedge when unsure.

Respond STRICTLY with a JSON array, echoing the draft_id values exactly:
[{"draft_id": "%s", "item_id": "%s", "variant": 1, "content": "..."},
 {"draft_id": "%s", "item_id": "%s", "variant": 2, "content": "..."}]

Item:
%s`,
		d.styleMin, d.styleMax,
		DeriveDraftID(dctx.ItemID, 1), dctx.ItemID,
		DeriveDraftID(dctx.ItemID, 2), dctx.ItemID,
		string(ctxJSON))
}
