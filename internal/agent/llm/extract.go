package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// safety limits to avoid pathological model output
const (
	maxContentLen = 128 * 1024 // 128KB
	maxErrSnippet = 200
)

// ExtractJSON pulls the JSON object out of raw model output. Providers wrap
// structured answers in code fences or prose; this strips both and validates
// the remainder.
func ExtractJSON(content string) (json.RawMessage, error) {
	if len(content) > maxContentLen {
		// Back up to a rune start so the cut cannot split a multi-byte rune
		// and fail the utf8 check below on otherwise valid output.
		cut := maxContentLen
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("model output is not valid utf8")
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("model output is empty")
	}

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output: %s", safeSnippet(trimmed))
	}
	candidate := trimmed[start : end+1]

	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("invalid JSON in model output: %s", safeSnippet(candidate))
	}
	return json.RawMessage(candidate), nil
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
