package fetch

import "strings"

// DefaultAIKeywords marks an item as on-topic for the pipeline. Sources that
// carry mostly unrelated content filter against this list; topic-specific
// sources skip filtering.
var DefaultAIKeywords = []string{
	"llm", "gpt", "claude", "gemini", "agent", "rag", "retrieval",
	"embedding", "vector", "fine-tun", "prompt", "transformer",
	"machine learning", "deep learning", "neural", "openai", "anthropic",
	"langchain", "langgraph", "inference", "eval", "benchmark",
	"ai ", " ai", "artificial intelligence",
}

// KeywordFilter keeps items whose title or description contains any keyword,
// case-insensitively.
type KeywordFilter struct {
	keywords []string
}

func NewKeywordFilter(keywords []string) *KeywordFilter {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &KeywordFilter{keywords: lowered}
}

func (f *KeywordFilter) Matches(item Item) bool {
	if len(f.keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(item.Title + " " + item.Description)
	for _, kw := range f.keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func (f *KeywordFilter) Apply(items []Item) []Item {
	var out []Item
	for _, item := range items {
		if f.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}
