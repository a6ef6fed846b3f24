package llm

import (
	"encoding/json"
	"strings"
)

// RawKey holds the verbatim reply when no JSON object could be recovered.
const RawKey = "raw"

// Coerce recovers a JSON object from a model reply. It tries the trimmed reply
// as a whole, then the span from the first '{' to the last '}', and finally
// wraps the reply as {"raw": reply}. It never fails.
func Coerce(reply string) map[string]any {
	trimmed := strings.TrimSpace(reply)
	if m, ok := decodeObject(trimmed); ok {
		return m
	}
	if i := strings.IndexByte(trimmed, '{'); i >= 0 {
		if j := strings.LastIndexByte(trimmed, '}'); j > i {
			if m, ok := decodeObject(trimmed[i : j+1]); ok {
				return m
			}
		}
	}
	return map[string]any{RawKey: reply}
}

// IsRaw reports whether m is the fallback wrapper produced by Coerce.
func IsRaw(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	_, ok := m[RawKey].(string)
	return ok
}

// ContainsJSONObject reports whether Coerce can recover an object from s.
func ContainsJSONObject(s string) bool {
	return !IsRaw(Coerce(s))
}

func decodeObject(s string) (map[string]any, bool) {
	if s == "" || s[0] != '{' {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
