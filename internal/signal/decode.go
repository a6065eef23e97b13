package signal

import (
	"encoding/json"
	"strings"
)

// DecodeObjects coerces a loosely-typed inter-stage payload into a list of
// JSON objects. Upstream stages may hand over a native list of mappings, a
// JSON-encoded string containing an array, or a JSON-encoded string containing
// a single object; list elements may themselves arrive nested-encoded as
// strings. Anything unparseable yields an empty list — this helper never
// fails, it degrades.
func DecodeObjects(payload any) []map[string]any {
	switch v := payload.(type) {
	case nil:
		return []map[string]any{}
	case []map[string]any:
		return v
	case map[string]any:
		return []map[string]any{v}
	case []any:
		return objectsFromSlice(v)
	case []byte:
		return decodeObjectString(string(v))
	case string:
		return decodeObjectString(v)
	}
	return []map[string]any{}
}

func objectsFromSlice(elems []any) []map[string]any {
	out := make([]map[string]any, 0, len(elems))
	for _, elem := range elems {
		switch t := elem.(type) {
		case map[string]any:
			out = append(out, t)
		case string:
			// Nested-encoded element: parse or discard.
			var obj map[string]any
			if err := json.Unmarshal([]byte(t), &obj); err == nil {
				out = append(out, obj)
			}
		}
	}
	return out
}

func decodeObjectString(raw string) []map[string]any {
	raw = strings.TrimSpace(raw)

	if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start != -1 && end > start {
		var arr []any
		if err := json.Unmarshal([]byte(raw[start:end+1]), &arr); err == nil {
			return objectsFromSlice(arr)
		}
	}

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start != -1 && end > start {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err == nil {
			return []map[string]any{obj}
		}
	}

	return []map[string]any{}
}
