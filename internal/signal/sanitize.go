package signal

import (
	"html"
	"strings"
)

// DefaultSanitizeMax bounds sanitized text so prompts stay a reasonable size.
const DefaultSanitizeMax = 2000

// Sanitize cleans externally-sourced text before it enters a prompt or the
// store: decodes HTML entities, strips ASCII control characters (newlines and
// carriage returns survive), truncates to max characters with an ellipsis
// marker, and trims surrounding whitespace. Pure and idempotent on clean input.
func Sanitize(text string, max int) string {
	if text == "" {
		return ""
	}
	text = html.UnescapeString(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	text = b.String()

	if max > 0 {
		if runes := []rune(text); len(runes) > max {
			text = string(runes[:max]) + "..."
		}
	}
	return strings.TrimSpace(text)
}

// TruncateForPost shortens text to fit a posting character limit, preferring
// a word boundary when one falls in the second half of the budget.
func TruncateForPost(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	truncated := string(runes[:max-3])
	if idx := strings.LastIndex(truncated, " "); idx > max/2 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}
