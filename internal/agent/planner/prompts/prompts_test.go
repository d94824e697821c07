package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutesKnownTokens(t *testing.T) {
	p := StructuredPrompt{ID: "test.v1", template: "User said: {user_message}\nHistory:\n{conversation}"}

	got := p.Render(map[string]string{
		"user_message": "what is 5+10?",
		"conversation": "user: hello\nassistant: hi",
	})
	assert.Contains(t, got, "User said: what is 5+10?")
	assert.Contains(t, got, "assistant: hi")
}

func TestRenderLeavesUnknownTokens(t *testing.T) {
	p := StructuredPrompt{ID: "test.v1", template: `Schema: {"intent": "calc"} for {user_message}`}

	got := p.Render(map[string]string{"user_message": "hi"})
	assert.Contains(t, got, `{"intent": "calc"}`)
	assert.Contains(t, got, "for hi")
}

func TestEmbeddedTemplatesCarryTheirTokens(t *testing.T) {
	cases := []struct {
		prompt StructuredPrompt
		tokens []string
	}{
		{Intent, []string{"{conversation}", "{user_message}"}},
		{Slots, []string{"{conversation}", "{user_message}"}},
		{Decision, []string{"{conversation}", "{intent}", "{slots_json}"}},
		{FollowUp, []string{"{conversation}", "{intent}", "{slots_json}"}},
		{Synthesis, []string{"{conversation}", "{intent}", "{tool_summary}"}},
	}
	for _, tc := range cases {
		t.Run(tc.prompt.ID, func(t *testing.T) {
			assert.NotEmpty(t, strings.TrimSpace(tc.prompt.template))
			for _, token := range tc.tokens {
				assert.Contains(t, tc.prompt.template, token)
			}
		})
	}
}
