// Package prompts holds the planner's structured prompt templates. Templates
// are rendered by replacing known {tokens} only, so braces inside JSON
// examples never interfere.
package prompts

import (
	_ "embed"
	"strings"
)

//go:embed template/intent.txt
var intentTemplate string

//go:embed template/slots.txt
var slotsTemplate string

//go:embed template/decision.txt
var decisionTemplate string

//go:embed template/follow_up.txt
var followUpTemplate string

//go:embed template/synthesis.txt
var synthesisTemplate string

// StructuredPrompt pairs a stable prompt identifier with its template. The
// identifier participates in the invoker's cache key, so bump the version
// suffix whenever the template text changes meaning.
type StructuredPrompt struct {
	ID       string
	template string
}

// Render substitutes the provided variables into the template. Unknown
// variables are ignored; missing ones render as empty text.
func (p StructuredPrompt) Render(variables map[string]string) string {
	pairs := make([]string, 0, len(variables)*2)
	for k, v := range variables {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(strings.TrimSpace(p.template))
}

var (
	Intent    = StructuredPrompt{ID: "planner.intent.v1", template: intentTemplate}
	Slots     = StructuredPrompt{ID: "planner.slots.v1", template: slotsTemplate}
	Decision  = StructuredPrompt{ID: "planner.decision.v1", template: decisionTemplate}
	FollowUp  = StructuredPrompt{ID: "planner.follow_up.v1", template: followUpTemplate}
	Synthesis = StructuredPrompt{ID: "planner.synthesis.v1", template: synthesisTemplate}
)
