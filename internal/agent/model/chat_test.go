package model

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/zus-planner-poc/server/internal/core/error"
)

func TestTurnRequestValidate(t *testing.T) {
	valid := TurnRequest{
		SessionID: "s1",
		Messages: []ChatMessage{
			UserMessage("hello"),
			AssistantMessage("hi there"),
			UserMessage("what is 5+10?"),
		},
	}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name string
		req  TurnRequest
	}{
		{"missing session", TurnRequest{Messages: []ChatMessage{UserMessage("hi")}}},
		{"no messages", TurnRequest{SessionID: "s1"}},
		{"blank content", TurnRequest{SessionID: "s1", Messages: []ChatMessage{{Role: RoleUser, Content: "   "}}}},
		{"unknown role", TurnRequest{SessionID: "s1", Messages: []ChatMessage{{Role: "system", Content: "x"}, UserMessage("hi")}}},
		{"last not user", TurnRequest{SessionID: "s1", Messages: []ChatMessage{UserMessage("hi"), AssistantMessage("hello")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			require.Error(t, err)
			var appErr *errx.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
		})
	}
}

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentCalc, ParseIntent("calc"))
	assert.Equal(t, IntentOutlets, ParseIntent("outlets"))
	assert.Equal(t, IntentUnknown, ParseIntent("weather"))
	assert.Equal(t, IntentUnknown, ParseIntent(""))
}

func TestSlotStateToMap(t *testing.T) {
	s := SlotState{CalcExpression: "1+1", OutletArea: "PJ"}
	m := s.ToMap()
	assert.Equal(t, map[string]any{"calcExpression": "1+1", "outletArea": "PJ"}, m)
	assert.False(t, s.IsEmpty())
	assert.True(t, SlotState{}.IsEmpty())
}

func TestResultToMap(t *testing.T) {
	m := ResultToMap(&CalcResult{Expression: "1+1", Result: 2})
	assert.Equal(t, "1+1", m["expression"])
	assert.Equal(t, float64(2), m["result"])
}
