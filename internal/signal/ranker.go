package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"signalpost/internal/llm"
)

const descriptionCap = 500

// topicKeywords back the heuristic fallback used when the external judgment
// call fails. Authoritative scoring is the generator's job.
var topicKeywords = map[Topic][]string{
	TopicAIAgents:       {"agent", "agentic", "tool call", "autonomous"},
	TopicRAG:            {"rag", "retrieval", "embedding", "vector", "chunk"},
	TopicEvalFrameworks: {"eval", "evaluation", "benchmark", "metric"},
	TopicDeployments:    {"deploy", "production", "serving", "inference", "latency"},
	TopicDBAwareAgents:  {"database", "sql", "postgres", "query"},
}

// Ranker scores collected items on relevance and shortlists the best of them.
// The numeric judgment is delegated to the injected generator; the ranker owns
// the rubric, the threshold, and the top-N policy.
type Ranker struct {
	gen  llm.Generator
	opts llm.Options
	log  *slog.Logger
}

// NewRanker wires a ranker with its generation settings.
func NewRanker(gen llm.Generator, opts llm.Options, log *slog.Logger) *Ranker {
	if log == nil {
		log = slog.Default()
	}
	return &Ranker{gen: gen, opts: opts, log: log}
}

// ScoreItems defensively decodes the incoming batch, re-sanitizes its text
// fields, and asks the generator to score each item against the topic rubric.
// On generation failure it degrades to keyword-heuristic scores rather than
// failing the stage.
func (r *Ranker) ScoreItems(ctx context.Context, payload any) []ScoredItem {
	candidates := r.normalize(payload)
	if len(candidates) == 0 {
		return nil
	}

	scores, err := r.judge(ctx, candidates)
	if err != nil {
		r.log.Warn("relevance judgment failed, falling back to keyword scoring", "error", err)
		scores = nil
	}

	now := time.Now().UTC()
	scored := make([]ScoredItem, 0, len(candidates))
	for idx, item := range candidates {
		verdict, ok := lookupVerdict(scores, item.ItemID, idx)
		if !ok {
			verdict = heuristicVerdict(item.Title, item.Description)
		}
		item.RelevanceScore = clampScore(verdict.score)
		item.MatchedTopics = verdict.topics
		item.Reasoning = verdict.reasoning
		item.ScoredAt = now
		scored = append(scored, item)
	}

	r.log.Info("scored items", "count", len(scored))
	return scored
}

// Shortlist filters scored items to those at or above threshold, sorts them by
// score descending (stable, so arrival order breaks ties), and truncates to
// max. It returns the shortlist plus the qualified-before-truncation count.
func Shortlist(scored []ScoredItem, threshold float64, max int) ([]ScoredItem, int) {
	qualified := make([]ScoredItem, 0, len(scored))
	for _, item := range scored {
		if item.RelevanceScore >= threshold {
			qualified = append(qualified, item)
		}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].RelevanceScore > qualified[j].RelevanceScore
	})

	total := len(qualified)
	if max > 0 && len(qualified) > max {
		qualified = qualified[:max]
	}
	return qualified, total
}

// normalize turns whatever the collection stage handed over into clean
// ScoredItem candidates. Items may arrive as typed values or as (possibly
// nested) JSON-encoded payloads.
func (r *Ranker) normalize(payload any) []ScoredItem {
	if items, ok := payload.([]SignalItem); ok {
		out := make([]ScoredItem, 0, len(items))
		for _, it := range items {
			out = append(out, ScoredItem{
				ItemID:      it.ItemID(),
				URL:         it.URL,
				Title:       Sanitize(it.Title, DefaultSanitizeMax),
				Source:      it.Source,
				Description: Sanitize(it.Description, descriptionCap),
			})
		}
		return out
	}

	docs := DecodeObjects(payload)
	out := make([]ScoredItem, 0, len(docs))
	for _, doc := range docs {
		url := strings.TrimSpace(asString(doc["url"]))
		title := Sanitize(asString(doc["title"]), DefaultSanitizeMax)
		if url == "" || title == "" {
			continue
		}
		out = append(out, ScoredItem{
			ItemID:      Fingerprint(url),
			URL:         url,
			Title:       title,
			Source:      ParseSource(asString(doc["source"])),
			Description: Sanitize(asString(doc["description"]), descriptionCap),
		})
	}
	return out
}

type scoreVerdict struct {
	score     float64
	topics    []Topic
	reasoning string
}

func (r *Ranker) judge(ctx context.Context, items []ScoredItem) (map[string]scoreVerdict, error) {
	if r.gen == nil {
		return nil, fmt.Errorf("ranker: no generator configured")
	}

	type promptItem struct {
		ItemID      string `json:"item_id"`
		Title       string `json:"title"`
		Source      string `json:"source"`
		Description string `json:"description"`
	}
	batch := make([]promptItem, 0, len(items))
	for _, it := range items {
		batch = append(batch, promptItem{
			ItemID:      it.ItemID,
			Title:       it.Title,
			Source:      string(it.Source),
			Description: it.Description,
		})
	}
	batchJSON, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ranker: marshal batch: %w", err)
	}

	prompt := fmt.Sprintf(`You are a relevance scorer for AI/ML content.

Score each item on relevance (0-100) to these topics:
- ai_agents: AI agents and agentic systems
- rag: Retrieval-Augmented Generation
- eval_frameworks: evaluation frameworks for LLMs
- deployments: production deployments of AI/ML
- db_aware_agents: database-aware agents

Scoring guidelines:
- 80-100: directly about a target topic with actionable content
- 60-79: related with useful signal
- below 60: discard

Be strict. Prefer quality over quantity.

Respond STRICTLY with a JSON array, one object per item:
[{"item_id": "...", "relevance_score": 0, "matched_topics": ["..."], "reasoning": "..."}]

Items:
%s`, string(batchJSON))

	out, err := r.gen.Generate(ctx, prompt, r.opts)
	if err != nil {
		return nil, err
	}

	docs := DecodeObjects(out)
	if len(docs) == 0 {
		return nil, fmt.Errorf("ranker: judgment returned no parseable scores")
	}

	verdicts := make(map[string]scoreVerdict, len(docs)*2)
	for idx, doc := range docs {
		v := scoreVerdict{
			score:     asFloat(doc["relevance_score"]),
			topics:    parseTopics(doc["matched_topics"]),
			reasoning: asString(doc["reasoning"]),
		}
		// The generator does not always echo identifiers correctly; keep a
		// positional key so mismatched ids still reconcile.
		verdicts[positionKey(idx)] = v
		if id := asString(doc["item_id"]); id != "" {
			verdicts[id] = v
		}
	}
	return verdicts, nil
}

func lookupVerdict(scores map[string]scoreVerdict, itemID string, idx int) (scoreVerdict, bool) {
	if scores == nil {
		return scoreVerdict{}, false
	}
	if v, ok := scores[itemID]; ok {
		return v, true
	}
	v, ok := scores[positionKey(idx)]
	return v, ok
}

func positionKey(idx int) string {
	return fmt.Sprintf("#%d", idx)
}

func heuristicVerdict(title, description string) scoreVerdict {
	haystack := strings.ToLower(title + " " + description)
	var matched []Topic
	for topic, words := range topicKeywords {
		for _, w := range words {
			if strings.Contains(haystack, w) {
				matched = append(matched, topic)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })

	score := 40.0
	if len(matched) > 0 {
		score = 60 + float64(len(matched)-1)*10
		if score > 90 {
			score = 90
		}
	}
	return scoreVerdict{score: score, topics: matched, reasoning: "keyword fallback"}
}

func parseTopics(v any) []Topic {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	var topics []Topic
	for _, el := range raw {
		if t, ok := ParseTopic(asString(el)); ok {
			topics = append(topics, t)
		}
	}
	return topics
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
