package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zus-planner-poc/server/internal/agent/model"
	"github.com/zus-planner-poc/server/internal/services/calculator"
)

// Rule-based reply texts used when the synthesis model call is skipped or
// fails. They lean on whatever tool result is already in state so the user
// still gets a grounded answer.

func ruleBasedMessage(state *model.ChatState) string {
	if state.Error != nil {
		return fmt.Sprintf(
			"I'm the ZUS Coffee assistant for calculator checks, drinkware finds, and outlet guidance, but something went wrong (%s). %s Please try again or clarify your request.",
			state.Error.Type, state.Error.Message,
		)
	}
	switch state.Tools.LastTool {
	case "calc":
		if msg := calcFallback(state.Tools.LastResult); msg != "" {
			return msg
		}
	case "products":
		return productsFallback(state.Tools.LastResult)
	case "outlets":
		return outletsFallback(state.Tools.LastResult)
	}
	return "I'm the ZUS Coffee assistant who can use a calculator, suggest drinkware, and locate outlets. Could you share a bit more so I can point you to the right tool?"
}

func calcFallback(result map[string]any) string {
	if result == nil {
		return ""
	}
	expression, _ := result["expression"].(string)
	value, ok := result["result"].(float64)
	if expression == "" || !ok {
		return ""
	}
	return fmt.Sprintf("The result for `%s` is **%s**.", expression, calculator.FormatResult(value))
}

func productsFallback(result map[string]any) string {
	if result == nil {
		return "I couldn't find matching drinkware right now."
	}
	hits, _ := result["topK"].([]any)
	if len(hits) == 0 {
		return "I couldn't find matching drinkware right now."
	}
	var titles []string
	for _, h := range hits {
		hit, ok := h.(map[string]any)
		if !ok {
			continue
		}
		title, _ := hit["title"].(string)
		if title == "" {
			continue
		}
		titles = append(titles, title)
		if len(titles) == 3 {
			break
		}
	}
	if len(titles) == 0 {
		return "I couldn't find matching drinkware right now."
	}
	msg := "I found these drinkware options: " + strings.Join(titles, ", ") + "."
	if summary, _ := result["summary"].(string); summary != "" {
		msg += " " + summary
	}
	return msg
}

func outletsFallback(result map[string]any) string {
	if result == nil {
		return "I didn't find matching outlets."
	}
	rows, _ := result["rows"].([]any)
	if len(rows) == 0 {
		return "I didn't find matching outlets."
	}
	row, ok := rows[0].(map[string]any)
	if !ok {
		return "I didn't find matching outlets."
	}
	name, _ := row["name"].(string)
	if name == "" {
		return "I didn't find matching outlets."
	}
	msg := name + " is available."
	openTime, _ := row["open_time"].(string)
	closeTime, _ := row["close_time"].(string)
	if openTime != "" && closeTime != "" {
		msg += fmt.Sprintf(" They open at %s and close at %s.", openTime, closeTime)
	}
	return msg
}

// fallbackFollowUpPrompt is the clarification question used when the
// follow-up model call is unavailable.
func fallbackFollowUpPrompt(intent model.Intent) string {
	switch intent {
	case model.IntentCalc:
		return "I can help calculate it. Could you share the full expression?"
	case model.IntentProducts:
		return "Which drinkware item or style are you looking for?"
	case model.IntentOutlets:
		return "Which outlet or area should I check?"
	default:
		return "Could you clarify what you need help with?"
	}
}

// buildToolSummary renders the tool outcome handed to the synthesis prompt.
// Outlet internals (the generated query and its parameters) stay out of the
// summary so the model does not echo them back to the user.
func buildToolSummary(state *model.ChatState) string {
	var parts []string
	if _, ok := state.Metadata["productAggregation"]; ok {
		parts = append(parts, "Note: User asked for a product count/aggregate. Product search only returns a limited sample; do not claim an exact catalog-wide number.")
	}
	if state.Tools.LastTool != "" {
		parts = append(parts, "Last tool: "+state.Tools.LastTool)
	}
	if result := summarizableResult(state); result != nil {
		if payload, err := json.MarshalIndent(result, "", "  "); err == nil {
			parts = append(parts, "Tool result:\n"+string(payload))
		}
	}
	if state.Error != nil {
		parts = append(parts, fmt.Sprintf("Error: %s - %s", state.Error.Type, state.Error.Message))
	}
	if len(parts) == 0 {
		return "No tool call yet; planner still needs information."
	}
	return strings.Join(parts, "\n")
}

func summarizableResult(state *model.ChatState) map[string]any {
	result := state.Tools.LastResult
	if result == nil {
		return nil
	}
	if state.Tools.LastTool != "outlets" {
		return result
	}
	trimmed := make(map[string]any, 1)
	if rows, ok := result["rows"]; ok {
		trimmed["rows"] = rows
	}
	return trimmed
}
