package signal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"signalpost/internal/llm"
)

var hypePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bgame[- ]?changer\b`),
	regexp.MustCompile(`(?i)\brevolutionary\b`),
	regexp.MustCompile(`(?i)\bchanges everything\b`),
	regexp.MustCompile(`(?i)\bmind[- ]?blowing\b`),
	regexp.MustCompile(`(?i)\binsane\b`),
	regexp.MustCompile(`(?i)\bunbelievable\b`),
	regexp.MustCompile(`(?i)\b10x\b`),
	regexp.MustCompile(`(?i)\b100x\b`),
	regexp.MustCompile(`(?i)\bkills?\b.*\bindustry\b`),
	regexp.MustCompile(`(?i)\bdisrupt\b`),
}

var (
	numberPattern   = regexp.MustCompile(`\d+[%xX]|\d+\.\d+`)
	actionPattern   = regexp.MustCompile(`(?i)\b(try|build|test|compare|deploy|evaluate|measure|run|use)\b`)
	tradeoffPattern = regexp.MustCompile(`(?i)\b(but|however|tradeoff|limitation|caveat|downside|cost)\b`)
)

// HypeCheck reports generic-hype matches in a draft.
type HypeCheck struct {
	HasHype bool     `json:"has_hype"`
	Phrases []string `json:"phrases"`
}

// CheckHype matches a draft against the fixed hype phrase list,
// case-insensitively, and returns every match.
func CheckHype(text string) HypeCheck {
	var found []string
	for _, pattern := range hypePatterns {
		found = append(found, pattern.FindAllString(text, -1)...)
	}
	return HypeCheck{HasHype: len(found) > 0, Phrases: found}
}

// LengthReport is the character-limit verdict for a draft.
type LengthReport struct {
	Count       int  `json:"count"`
	WithinLimit bool `json:"within_limit"`
	OverBy      int  `json:"over_by"`
}

// CheckLength counts characters against the posting limit.
func CheckLength(text string, limit int) LengthReport {
	count := len([]rune(text))
	over := count - limit
	if over < 0 {
		over = 0
	}
	return LengthReport{Count: count, WithinLimit: count <= limit, OverBy: over}
}

// SubstanceCheck scores how much actionable content a draft carries.
type SubstanceCheck struct {
	Indicators map[string]bool `json:"indicators"`
	Score      float64         `json:"score"`
}

// CheckSubstance evaluates five boolean substance indicators and scores the
// draft as the fraction satisfied, in percent, rounded to one decimal.
func CheckSubstance(text string) SubstanceCheck {
	indicators := map[string]bool{
		"has_question":          strings.Contains(text, "?"),
		"has_reference":         strings.Contains(text, "http") || strings.Contains(text, "@"),
		"has_specific_numbers":  numberPattern.MatchString(text),
		"has_action_verb":       actionPattern.MatchString(text),
		"has_tradeoff_language": tradeoffPattern.MatchString(text),
	}
	var hits int
	for _, ok := range indicators {
		if ok {
			hits++
		}
	}
	score := math.Round(float64(hits)/float64(len(indicators))*1000) / 10
	return SubstanceCheck{Indicators: indicators, Score: score}
}

// Gate runs the quality checks over generated drafts. The three rule checks
// are pure functions; the final pass/fail judgment is delegated to the
// generator with the rule signals attached, degrading to a rules-only verdict
// when the call fails.
type Gate struct {
	gen       llm.Generator
	opts      llm.Options
	styleMin  int
	styleMax  int
	hardLimit int
	log       *slog.Logger
}

// NewGate wires a quality gate. The length signal reports against the
// platform hard limit; the stylistic band is enforced by the verdict rules.
func NewGate(gen llm.Generator, opts llm.Options, styleMin, styleMax, hardLimit int, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{gen: gen, opts: opts, styleMin: styleMin, styleMax: styleMax, hardLimit: hardLimit, log: log}
}

// Check evaluates every draft and returns one result per input, in input order.
func (g *Gate) Check(ctx context.Context, drafts []DraftPost) []QualityCheckResult {
	results := make([]QualityCheckResult, 0, len(drafts))
	for _, draft := range drafts {
		results = append(results, g.checkOne(ctx, draft))
	}
	return results
}

func (g *Gate) checkOne(ctx context.Context, draft DraftPost) QualityCheckResult {
	hype := CheckHype(draft.Content)
	length := CheckLength(draft.Content, g.hardLimit)
	substance := CheckSubstance(draft.Content)

	result, err := g.judge(ctx, draft, hype, length, substance)
	if err != nil {
		g.log.Warn("quality judgment failed, using rule-only verdict", "draft_id", draft.DraftID, "error", err)
		result = g.ruleVerdict(draft, hype, length, substance)
	}
	result.DraftID = draft.DraftID
	result.CheckedAt = time.Now().UTC()
	return result
}

func (g *Gate) judge(ctx context.Context, draft DraftPost, hype HypeCheck, length LengthReport, substance SubstanceCheck) (QualityCheckResult, error) {
	if g.gen == nil {
		return QualityCheckResult{}, fmt.Errorf("gate: no generator configured")
	}

	prompt := fmt.Sprintf(`You are a content quality reviewer for technical AI/ML posts. Be strict:
it is better to reject a mediocre draft than to let low-quality content through.

Quality rules -- a draft MUST:
- be between %d and %d characters (reject if under %d: too short)
- contain no generic AI hype language
- include at least one of: use case, experiment, workflow, tradeoff
- not fabricate metrics or claims
- accurately represent the source material

Rule-check signals already computed for this draft:
- hype: has_hype=%t phrases=%v
- length: count=%d within_%d_limit=%t over_by=%d
- substance: score=%.1f indicators=%v

Draft (id %s):
%s

Respond STRICTLY with one JSON object:
{"draft_id": "%s", "passed": true, "score": 0, "issues": ["..."], "suggestions": ["..."]}`,
		g.styleMin, g.styleMax, g.styleMin,
		hype.HasHype, hype.Phrases,
		length.Count, g.hardLimit, length.WithinLimit, length.OverBy,
		substance.Score, substance.Indicators,
		draft.DraftID, Sanitize(draft.Content, DefaultSanitizeMax),
		draft.DraftID)

	out, err := g.gen.Generate(ctx, prompt, g.opts)
	if err != nil {
		return QualityCheckResult{}, err
	}

	docs := DecodeObjects(out)
	if len(docs) == 0 {
		return QualityCheckResult{}, fmt.Errorf("gate: judgment returned no parseable verdict")
	}
	doc := docs[0]

	passed, _ := doc["passed"].(bool)
	return QualityCheckResult{
		Passed:      passed,
		Score:       clampScore(asFloat(doc["score"])),
		Issues:      stringSlice(doc["issues"]),
		Suggestions: stringSlice(doc["suggestions"]),
	}, nil
}

// ruleVerdict decides from the three rule checks alone: length in the
// stylistic band, no hype, and at least one substance indicator.
func (g *Gate) ruleVerdict(draft DraftPost, hype HypeCheck, length LengthReport, substance SubstanceCheck) QualityCheckResult {
	var issues, suggestions []string

	if length.Count < g.styleMin || length.Count > g.styleMax {
		issues = append(issues, fmt.Sprintf("content is %d chars, outside the %d-%d band", length.Count, g.styleMin, g.styleMax))
		if length.Count < g.styleMin {
			suggestions = append(suggestions, "expand the post with a concrete example or tradeoff")
		} else {
			suggestions = append(suggestions, fmt.Sprintf("trim the post to at most %d chars", g.styleMax))
		}
	}
	if hype.HasHype {
		issues = append(issues, "hype language: "+strings.Join(hype.Phrases, ", "))
		suggestions = append(suggestions, "replace hype phrases with specifics from the source")
	}
	if substance.Score == 0 {
		issues = append(issues, "no substance indicators found")
		suggestions = append(suggestions, "add a use case, experiment, workflow, or tradeoff")
	}

	return QualityCheckResult{
		Passed:      len(issues) == 0,
		Score:       substance.Score,
		Issues:      issues,
		Suggestions: suggestions,
	}
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, el := range raw {
		if s := asString(el); s != "" {
			out = append(out, s)
		}
	}
	return out
}
