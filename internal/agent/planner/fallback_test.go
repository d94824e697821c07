package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

func TestRuleBasedMessageCalc(t *testing.T) {
	state := model.NewChatState("s1")
	state.Tools = model.ToolState{
		LastTool:   "calc",
		LastResult: map[string]any{"expression": "5+10", "result": float64(15)},
	}

	assert.Equal(t, "The result for `5+10` is **15**.", ruleBasedMessage(state))
}

func TestRuleBasedMessageProducts(t *testing.T) {
	state := model.NewChatState("s1")
	state.Tools = model.ToolState{
		LastTool: "products",
		LastResult: map[string]any{
			"topK": []any{
				map[string]any{"title": "ZUS OG Cup 2.0 650ml"},
				map[string]any{"title": "ZUS All Day Cup 500ml - Matte Black"},
			},
			"summary": "2 matching items between RM79 and RM89.",
		},
	}

	got := ruleBasedMessage(state)
	assert.Contains(t, got, "I found these drinkware options: ZUS OG Cup 2.0 650ml, ZUS All Day Cup 500ml - Matte Black.")
	assert.Contains(t, got, "2 matching items between RM79 and RM89.")
}

func TestRuleBasedMessageProductsEmpty(t *testing.T) {
	state := model.NewChatState("s1")
	state.Tools = model.ToolState{
		LastTool:   "products",
		LastResult: map[string]any{"topK": []any{}},
	}

	assert.Equal(t, "I couldn't find matching drinkware right now.", ruleBasedMessage(state))
}

func TestRuleBasedMessageOutlets(t *testing.T) {
	state := model.NewChatState("s1")
	state.Tools = model.ToolState{
		LastTool: "outlets",
		LastResult: map[string]any{
			"rows": []any{
				map[string]any{"name": "ZUS Coffee SS2", "open_time": "07:30", "close_time": "21:30"},
			},
		},
	}

	assert.Equal(t, "ZUS Coffee SS2 is available. They open at 07:30 and close at 21:30.", ruleBasedMessage(state))
}

func TestRuleBasedMessageOutletsEmpty(t *testing.T) {
	state := model.NewChatState("s1")
	state.Tools = model.ToolState{
		LastTool:   "outlets",
		LastResult: map[string]any{"rows": []any{}},
	}

	assert.Equal(t, "I didn't find matching outlets.", ruleBasedMessage(state))
}

func TestRuleBasedMessageError(t *testing.T) {
	state := model.NewChatState("s1")
	state.Error = &model.ErrorState{Type: "calc_error", Message: "Division by zero is not allowed."}

	got := ruleBasedMessage(state)
	assert.Contains(t, got, "something went wrong (calc_error)")
	assert.Contains(t, got, "Division by zero is not allowed.")
}

func TestRuleBasedMessageDefault(t *testing.T) {
	state := model.NewChatState("s1")
	got := ruleBasedMessage(state)
	assert.Contains(t, got, "calculator")
	assert.Contains(t, got, "drinkware")
	assert.Contains(t, got, "outlets")
}

func TestFallbackFollowUpPrompt(t *testing.T) {
	assert.Equal(t, "I can help calculate it. Could you share the full expression?", fallbackFollowUpPrompt(model.IntentCalc))
	assert.Equal(t, "Which drinkware item or style are you looking for?", fallbackFollowUpPrompt(model.IntentProducts))
	assert.Equal(t, "Which outlet or area should I check?", fallbackFollowUpPrompt(model.IntentOutlets))
	assert.Equal(t, "Could you clarify what you need help with?", fallbackFollowUpPrompt(model.IntentUnknown))
}

func TestBuildToolSummaryOmitsOutletInternals(t *testing.T) {
	state := model.NewChatState("s1")
	state.Tools = model.ToolState{
		LastTool: "outlets",
		LastResult: map[string]any{
			"query":          "Previous outlets question: x. Follow-up question: y.",
			"generatedQuery": "SELECT name FROM outlets LIMIT 10",
			"parameters":     map[string]any{"city_param_0": "%pj%"},
			"rows":           []any{map[string]any{"name": "ZUS Coffee SS2"}},
		},
	}

	got := buildToolSummary(state)
	assert.Contains(t, got, "Last tool: outlets")
	assert.Contains(t, got, "ZUS Coffee SS2")
	assert.NotContains(t, got, "SELECT")
	assert.NotContains(t, got, "city_param_0")
	assert.NotContains(t, got, "Follow-up question")
}

func TestBuildToolSummaryAggregationNote(t *testing.T) {
	state := model.NewChatState("s1")
	state.Metadata["productAggregation"] = true
	state.Tools = model.ToolState{
		LastTool:   "products",
		LastResult: map[string]any{"topK": []any{}},
	}

	got := buildToolSummary(state)
	assert.Contains(t, got, "do not claim an exact catalog-wide number")
}

func TestBuildToolSummaryNoToolYet(t *testing.T) {
	state := model.NewChatState("s1")
	assert.Equal(t, "No tool call yet; planner still needs information.", buildToolSummary(state))
}

func TestBuildToolSummaryError(t *testing.T) {
	state := model.NewChatState("s1")
	state.Error = &model.ErrorState{Type: "outlet_exec_error", Message: "Query parameter has an unexpected type."}

	got := buildToolSummary(state)
	assert.Contains(t, got, "Error: outlet_exec_error - Query parameter has an unexpected type.")
}
