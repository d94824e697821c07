package model

// Intent is the closed classification of what capability a turn needs.
type Intent string

const (
	IntentCalc     Intent = "calc"
	IntentProducts Intent = "products"
	IntentOutlets  Intent = "outlets"
	IntentChitchat Intent = "chitchat"
	IntentUnknown  Intent = "unknown"
)

// ParseIntent normalises a classifier value into the closed Intent set.
// Anything unrecognised collapses to IntentUnknown.
func ParseIntent(v string) Intent {
	switch Intent(v) {
	case IntentCalc, IntentProducts, IntentOutlets, IntentChitchat:
		return Intent(v)
	default:
		return IntentUnknown
	}
}

// Decision is the next planner action chosen after intent and slots are known.
type Decision string

const (
	DecisionAskFollowUp      Decision = "ask_follow_up"
	DecisionCallCalc         Decision = "call_calc"
	DecisionCallProducts     Decision = "call_products"
	DecisionCallOutlets      Decision = "call_outlets"
	DecisionRespondSmalltalk Decision = "respond_smalltalk"
)

// SlotState holds the fixed set of optional slots, rebuilt each turn.
// Absent slots are empty strings after normalisation.
type SlotState struct {
	CalcExpression string `json:"calcExpression,omitempty"`
	ProductQuery   string `json:"productQuery,omitempty"`
	OutletArea     string `json:"outletArea,omitempty"`
	OutletName     string `json:"outletName,omitempty"`
}

// IsEmpty reports whether every slot is absent.
func (s SlotState) IsEmpty() bool {
	return s.CalcExpression == "" && s.ProductQuery == "" && s.OutletArea == "" && s.OutletName == ""
}

// ToMap serialises the slots for prompt variables and event payloads.
func (s SlotState) ToMap() map[string]any {
	m := map[string]any{}
	if s.CalcExpression != "" {
		m["calcExpression"] = s.CalcExpression
	}
	if s.ProductQuery != "" {
		m["productQuery"] = s.ProductQuery
	}
	if s.OutletArea != "" {
		m["outletArea"] = s.OutletArea
	}
	if s.OutletName != "" {
		m["outletName"] = s.OutletName
	}
	return m
}

// ToolState records the most recently invoked capability and its raw result.
// LastResult is an untyped map so deserialised sessions behave identically to
// freshly written ones.
type ToolState struct {
	LastTool   string         `json:"lastTool,omitempty"`
	LastResult map[string]any `json:"lastResult,omitempty"`
}

// ErrorState is a typed capability failure surfaced to synthesis.
type ErrorState struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatState is the conversation state for one session. Owned by the session
// store, mutated only by the planner during a turn.
type ChatState struct {
	SessionID string         `json:"sessionId"`
	Messages  []ChatMessage  `json:"messages"`
	Intent    Intent         `json:"intent,omitempty"`
	Slots     SlotState      `json:"slots"`
	Tools     ToolState      `json:"tools"`
	Error     *ErrorState    `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata"`
}

// NewChatState creates an empty state for a session.
func NewChatState(sessionID string) *ChatState {
	return &ChatState{
		SessionID: sessionID,
		Metadata:  map[string]any{},
	}
}

// AppendMessage appends to the ordered message history.
func (s *ChatState) AppendMessage(msg ChatMessage) {
	s.Messages = append(s.Messages, msg)
}

// LatestUserMessage returns the content of the final message, which the turn
// contract guarantees to be user-authored.
func (s *ChatState) LatestUserMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Content
}
