package planner

import (
	"fmt"
	"strings"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

// Structured result schemas for the planner's model calls. Each type
// normalises its fields and rejects values outside its closed set, so a
// malformed payload surfaces as an invocation error rather than leaking into
// the state machine.

// IntentResult is the classification step's structured output.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence,omitempty"`
	Rationale  string  `json:"rationale,omitempty"`
}

func (r *IntentResult) Validate() error {
	r.Intent = strings.TrimSpace(r.Intent)
	r.Rationale = strings.TrimSpace(r.Rationale)
	switch model.Intent(r.Intent) {
	case model.IntentCalc, model.IntentProducts, model.IntentOutlets, model.IntentChitchat, model.IntentUnknown:
		return nil
	default:
		return fmt.Errorf("intent %q is not a known intent", r.Intent)
	}
}

// SlotResult is the extraction step's structured output. Whitespace-only
// values normalise to absent.
type SlotResult struct {
	CalcExpression string `json:"calcExpression,omitempty"`
	ProductQuery   string `json:"productQuery,omitempty"`
	OutletArea     string `json:"outletArea,omitempty"`
	OutletName     string `json:"outletName,omitempty"`
}

func (r *SlotResult) Validate() error {
	r.CalcExpression = strings.TrimSpace(r.CalcExpression)
	r.ProductQuery = strings.TrimSpace(r.ProductQuery)
	r.OutletArea = strings.TrimSpace(r.OutletArea)
	r.OutletName = strings.TrimSpace(r.OutletName)
	return nil
}

// ToSlotState converts extracted values to conversation slots.
func (r SlotResult) ToSlotState() model.SlotState {
	return model.SlotState{
		CalcExpression: r.CalcExpression,
		ProductQuery:   r.ProductQuery,
		OutletArea:     r.OutletArea,
		OutletName:     r.OutletName,
	}
}

// DecisionResult is the routing step's structured output.
type DecisionResult struct {
	Decision  string `json:"decision"`
	Rationale string `json:"rationale,omitempty"`
}

func (r *DecisionResult) Validate() error {
	r.Decision = strings.TrimSpace(r.Decision)
	r.Rationale = strings.TrimSpace(r.Rationale)
	switch model.Decision(r.Decision) {
	case model.DecisionAskFollowUp, model.DecisionCallCalc, model.DecisionCallProducts,
		model.DecisionCallOutlets, model.DecisionRespondSmalltalk:
		return nil
	default:
		return fmt.Errorf("decision %q is not a known decision", r.Decision)
	}
}

// FollowUpResult is the clarification step's structured output.
type FollowUpResult struct {
	Question string `json:"question"`
}

func (r *FollowUpResult) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("follow-up question is empty")
	}
	return nil
}

// SynthesisResult is the final reply step's structured output.
type SynthesisResult struct {
	Message  string `json:"message"`
	FollowUp string `json:"followUp,omitempty"`
}

func (r *SynthesisResult) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	r.FollowUp = strings.TrimSpace(r.FollowUp)
	if r.Message == "" {
		return fmt.Errorf("synthesis message is empty")
	}
	return nil
}
