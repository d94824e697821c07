package planner

import (
	"strings"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

const assistantSummaryLimit = 320

const followUpMarker = "follow-up question:"

// BuildOutletsQueryFromContext expands a short outlet follow-up ("what about
// SS2?") with context from the previous turn so the query service sees a
// self-contained question. When no prior context exists the latest message is
// returned unchanged.
func BuildOutletsQueryFromContext(state *model.ChatState, latest string) string {
	latest = strings.TrimSpace(latest)
	if state == nil {
		return latest
	}

	var sentences []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if !strings.HasSuffix(s, ".") {
			s += "."
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		sentences = append(sentences, s)
	}

	if prev := previousOutletsQuestion(state); prev != "" && !strings.EqualFold(prev, latest) {
		add("Previous outlets question: " + prev)
	}
	if summary := lastAssistantSummary(state.Messages); summary != "" {
		add("Previous assistant response: " + summary)
	}
	if mention := previousResultsMention(state); mention != "" {
		add(mention)
	}

	if len(sentences) == 0 {
		return latest
	}
	return strings.Join(sentences, " ") + " Follow-up question: " + latest
}

// previousOutletsQuestion recovers the raw question from the last outlets
// turn, preferring stored metadata over re-parsing the enriched query.
func previousOutletsQuestion(state *model.ChatState) string {
	if outletsCtx, ok := state.Metadata["outletsContext"].(map[string]any); ok {
		if raw, ok := outletsCtx["lastRawQuestion"].(string); ok && strings.TrimSpace(raw) != "" {
			return strings.TrimSpace(raw)
		}
	}
	if state.Tools.LastTool != "outlets" || state.Tools.LastResult == nil {
		return ""
	}
	query, _ := state.Tools.LastResult["query"].(string)
	return extractFollowUpQuestion(query)
}

// extractFollowUpQuestion pulls the text after the last follow-up marker from
// a previously enriched query, or returns the whole query when no marker is
// present.
func extractFollowUpQuestion(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	lowered := strings.ToLower(query)
	idx := strings.LastIndex(lowered, followUpMarker)
	if idx < 0 {
		return query
	}
	question := strings.TrimSpace(query[idx+len(followUpMarker):])
	return strings.TrimSuffix(question, ".")
}

// lastAssistantSummary finds the most recent assistant message before the
// current user turn, truncated at a word boundary.
func lastAssistantSummary(messages []model.ChatMessage) string {
	if len(messages) < 2 {
		return ""
	}
	for i := len(messages) - 2; i >= 0; i-- {
		if messages[i].Role != model.RoleAssistant {
			continue
		}
		content := strings.TrimSpace(messages[i].Content)
		if content == "" {
			return ""
		}
		return truncateAtWord(content, assistantSummaryLimit)
	}
	return ""
}

func truncateAtWord(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}

// previousResultsMention summarises the rows returned by the last outlets
// call, preferring outlet names and falling back to cities.
func previousResultsMention(state *model.ChatState) string {
	if state.Tools.LastTool != "outlets" || state.Tools.LastResult == nil {
		return ""
	}
	rows, ok := state.Tools.LastResult["rows"].([]any)
	if !ok || len(rows) == 0 {
		return ""
	}
	names := uniqueRowValues(rows, "name", 3)
	if len(names) > 0 {
		return "Previous results mentioned: " + strings.Join(names, ", ") + "."
	}
	cities := uniqueRowValues(rows, "city", 3)
	if len(cities) > 0 {
		return "Previous results covered cities: " + strings.Join(cities, ", ") + "."
	}
	return ""
}

func uniqueRowValues(rows []any, key string, limit int) []string {
	var values []string
	seen := make(map[string]struct{})
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			continue
		}
		v, _ := row[key].(string)
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
		if len(values) == limit {
			break
		}
	}
	return values
}
