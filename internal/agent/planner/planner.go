package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zus-planner-poc/server/internal/agent/events"
	"github.com/zus-planner-poc/server/internal/agent/llm"
	"github.com/zus-planner-poc/server/internal/agent/model"
	"github.com/zus-planner-poc/server/internal/agent/planner/prompts"
	"github.com/zus-planner-poc/server/internal/agent/repo"
	"github.com/zus-planner-poc/server/internal/services/calculator"
	"github.com/zus-planner-poc/server/internal/services/outlets"
	"github.com/zus-planner-poc/server/internal/services/products"
	logx "github.com/zus-planner-poc/server/pkg/logger"
)

// Capability interfaces consumed by the planner. Concrete services satisfy
// them; tests substitute fakes.
type Calculator interface {
	Evaluate(ctx context.Context, expression string) (*model.CalcResult, error)
}

type ProductSearcher interface {
	Search(ctx context.Context, query string) (*model.ProductSearchResult, error)
}

type OutletQuerier interface {
	Query(ctx context.Context, query string) (*model.OutletQueryResult, error)
}

// node identifies one step of the turn state machine.
type node string

const (
	nodeClassifyIntent   node = "classify_intent"
	nodeExtractSlots     node = "extract_slots"
	nodeDecideAction     node = "decide_action"
	nodeAskFollowUp      node = "ask_follow_up"
	nodeCallCalc         node = "call_calc"
	nodeCallProducts     node = "call_products"
	nodeCallOutlets      node = "call_outlets"
	nodeRespondSmalltalk node = "respond_smalltalk"
	nodeSynthesize       node = "synthesize"
	nodeEnd              node = ""
)

const conversationWindow = 6

// Planner runs one conversational turn at a time: classify, extract, decide,
// act, synthesize. All collaborators are injected; the planner itself holds
// no per-turn state and is safe for concurrent turns across sessions.
type Planner struct {
	invoker   *llm.Invoker
	store     repo.SessionStore
	broker    *events.Broker
	calc      Calculator
	products  ProductSearcher
	outlets   OutletQuerier
	guardrail ProductGuardrail
	cfg       model.PlannerConfig

	handlers map[node]func(ctx context.Context, t *turn) (node, error)
}

func New(invoker *llm.Invoker, store repo.SessionStore, broker *events.Broker,
	calc Calculator, searcher ProductSearcher, querier OutletQuerier,
	cfg model.PlannerConfig) *Planner {

	p := &Planner{
		invoker:   invoker,
		store:     store,
		broker:    broker,
		calc:      calc,
		products:  searcher,
		outlets:   querier,
		guardrail: NewProductGuardrail(),
		cfg:       cfg,
	}
	p.handlers = map[node]func(ctx context.Context, t *turn) (node, error){
		nodeClassifyIntent:   p.classifyIntent,
		nodeExtractSlots:     p.extractSlots,
		nodeDecideAction:     p.decide,
		nodeAskFollowUp:      p.askFollowUp,
		nodeCallCalc:         p.callCalc,
		nodeCallProducts:     p.callProducts,
		nodeCallOutlets:      p.callOutlets,
		nodeRespondSmalltalk: p.respondSmalltalk,
		nodeSynthesize:       p.synthesize,
	}
	return p
}

// turn is the mutable working set of a single RunTurn call.
type turn struct {
	state    *model.ChatState
	budget   *Budget
	actions  []model.ToolAction
	response string
}

// RunTurn executes the full state machine for one request and persists the
// resulting conversation state. Capability failures are absorbed into the
// state's error field and reported through the synthesized reply; only
// request-validation and store failures surface as errors.
func (p *Planner) RunTurn(ctx context.Context, req *model.TurnRequest) (*model.TurnResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if p.cfg.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSec)*time.Second)
		defer cancel()
	}

	state, err := p.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = model.NewChatState(req.SessionID)
	}
	if state.Metadata == nil {
		state.Metadata = map[string]any{}
	}
	// The caller owns the transcript; replace rather than append so retries
	// and client-side edits do not duplicate messages.
	state.Messages = append(state.Messages[:0], req.Messages...)

	t := &turn{
		state:  state,
		budget: NewBudget(p.cfg.MaxCallsPerTurn),
	}

	for cur := nodeClassifyIntent; cur != nodeEnd; {
		handler, ok := p.handlers[cur]
		if !ok {
			return nil, fmt.Errorf("planner: no handler for node %q", cur)
		}
		next, err := handler(ctx, t)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	state.AppendMessage(model.AssistantMessage(t.response))
	if err := p.store.Save(ctx, state); err != nil {
		return nil, err
	}

	return &model.TurnResult{
		Response: model.AssistantMessage(t.response),
		Actions:  t.actions,
		Memory:   state,
	}, nil
}

// ResetSession drops both the stored conversation state and any queued
// events for the session.
func (p *Planner) ResetSession(ctx context.Context, sessionID string) error {
	if err := p.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	cleared := p.broker.Clear(sessionID)
	logx.Info().Str("session_id", sessionID).Int("events_cleared", cleared).Msg("session reset")
	return nil
}

func (p *Planner) classifyIntent(ctx context.Context, t *turn) (node, error) {
	p.publishNode(t, nodeClassifyIntent, events.TypeNodeStart, nil)

	vars := map[string]string{
		"conversation": formatConversation(priorMessages(t.state.Messages)),
		"user_message": t.state.LatestUserMessage(),
	}
	result, ok := invokeStep[IntentResult](ctx, p, t, nodeClassifyIntent, prompts.Intent, vars, func(r IntentResult) map[string]any {
		return map[string]any{"intent": r.Intent}
	})
	if ok {
		t.state.Intent = model.ParseIntent(result.Intent)
	} else {
		t.state.Intent = model.IntentUnknown
	}

	p.publish(t.state.SessionID, events.Event{
		Type: events.TypeDecision,
		Node: string(nodeClassifyIntent),
		Data: map[string]any{"intent": string(t.state.Intent)},
	})
	p.publishNode(t, nodeClassifyIntent, events.TypeNodeEnd, map[string]any{"intent": string(t.state.Intent)})
	return nodeExtractSlots, nil
}

func (p *Planner) extractSlots(ctx context.Context, t *turn) (node, error) {
	p.publishNode(t, nodeExtractSlots, events.TypeNodeStart, nil)

	vars := map[string]string{
		"conversation": formatConversation(priorMessages(t.state.Messages)),
		"user_message": t.state.LatestUserMessage(),
		"intent":       string(t.state.Intent),
	}
	// Slots are rebuilt from scratch every turn; a failed or skipped
	// extraction leaves them all absent rather than carrying stale values.
	t.state.Slots = model.SlotState{}
	result, ok := invokeStep[SlotResult](ctx, p, t, nodeExtractSlots, prompts.Slots, vars, nil)
	if ok {
		t.state.Slots = result.ToSlotState()
	}

	p.publishNode(t, nodeExtractSlots, events.TypeNodeEnd, map[string]any{"slots": t.state.Slots.ToMap()})
	return nodeDecideAction, nil
}

func (p *Planner) decide(ctx context.Context, t *turn) (node, error) {
	p.publishNode(t, nodeDecideAction, events.TypeNodeStart, nil)

	vars := map[string]string{
		"conversation": formatConversation(t.state.Messages),
		"intent":       string(t.state.Intent),
		"slots_json":   slotsJSON(t.state.Slots),
	}
	// When the routing call is skipped or fails, asking a clarifying question
	// is the only safe default; guessing a tool would act on unverified slots.
	decision := model.DecisionAskFollowUp
	result, ok := invokeStep[DecisionResult](ctx, p, t, nodeDecideAction, prompts.Decision, vars, func(r DecisionResult) map[string]any {
		return map[string]any{"decision": r.Decision}
	})
	if ok {
		decision = model.Decision(result.Decision)
	}

	// Product queries too vague to search get a clarification prompt instead
	// of a guaranteed-empty result set.
	if decision == model.DecisionCallProducts && p.guardrail.NeedsClarification(t.state.Slots.ProductQuery) {
		decision = model.DecisionAskFollowUp
	}

	t.actions = append(t.actions, model.ToolAction{
		Type: model.ActionDecision,
		Data: map[string]any{
			"intent":   string(t.state.Intent),
			"decision": string(decision),
		},
	})
	p.publish(t.state.SessionID, events.Event{
		Type: events.TypeDecision,
		Node: string(nodeDecideAction),
		Data: map[string]any{"decision": string(decision)},
	})
	p.publishNode(t, nodeDecideAction, events.TypeNodeEnd, map[string]any{"decision": string(decision)})
	return routeDecision(decision), nil
}

// routeDecision maps a decision to its node. Anything unrecognized degrades
// to smalltalk rather than failing the turn.
func routeDecision(d model.Decision) node {
	switch d {
	case model.DecisionAskFollowUp:
		return nodeAskFollowUp
	case model.DecisionCallCalc:
		return nodeCallCalc
	case model.DecisionCallProducts:
		return nodeCallProducts
	case model.DecisionCallOutlets:
		return nodeCallOutlets
	case model.DecisionRespondSmalltalk:
		return nodeRespondSmalltalk
	default:
		return nodeRespondSmalltalk
	}
}

func (p *Planner) askFollowUp(ctx context.Context, t *turn) (node, error) {
	p.publishNode(t, nodeAskFollowUp, events.TypeNodeStart, nil)

	vars := map[string]string{
		"conversation": formatConversation(t.state.Messages),
		"intent":       string(t.state.Intent),
		"slots_json":   slotsJSON(t.state.Slots),
	}
	question := fallbackFollowUpPrompt(t.state.Intent)
	result, ok := invokeStep[FollowUpResult](ctx, p, t, nodeAskFollowUp, prompts.FollowUp, vars, nil)
	if ok {
		question = result.Question
	}

	t.response = question
	t.actions = append(t.actions, model.ToolAction{
		Type:    model.ActionDecision,
		Status:  model.StatusSuccess,
		Message: question,
	})
	p.publishNode(t, nodeAskFollowUp, events.TypeNodeEnd, map[string]any{"message": question})
	return nodeEnd, nil
}

func (p *Planner) callCalc(ctx context.Context, t *turn) (node, error) {
	expression := t.state.Slots.CalcExpression
	p.publishNode(t, nodeCallCalc, events.TypeNodeStart, map[string]any{"expression": expression})
	t.actions = append(t.actions, model.ToolAction{
		Type: model.ActionToolCall,
		Tool: "calc",
		Args: map[string]any{"expression": expression},
	})

	result, err := p.calc.Evaluate(ctx, expression)
	if err != nil {
		p.recordToolError(t, nodeCallCalc, "calc", "calc_error", err)
		return nodeSynthesize, nil
	}

	p.recordToolResult(t, nodeCallCalc, "calc", model.ResultToMap(result))
	return nodeSynthesize, nil
}

func (p *Planner) callProducts(ctx context.Context, t *turn) (node, error) {
	query := t.state.Slots.ProductQuery
	p.publishNode(t, nodeCallProducts, events.TypeNodeStart, map[string]any{"query": query})
	t.actions = append(t.actions, model.ToolAction{
		Type: model.ActionToolCall,
		Tool: "products",
		Args: map[string]any{"query": query},
	})

	// The flag keys off the user's own phrasing, not the extracted query.
	if p.guardrail.IsAggregationQuery(t.state.LatestUserMessage()) {
		t.state.Metadata["productAggregation"] = true
	} else {
		delete(t.state.Metadata, "productAggregation")
	}

	result, err := p.products.Search(ctx, query)
	if err != nil {
		p.recordToolError(t, nodeCallProducts, "products", "product_error", err)
		return nodeSynthesize, nil
	}

	p.recordToolResult(t, nodeCallProducts, "products", model.ResultToMap(result))
	return nodeSynthesize, nil
}

func (p *Planner) callOutlets(ctx context.Context, t *turn) (node, error) {
	raw := strings.TrimSpace(t.state.LatestUserMessage())
	if raw == "" {
		raw = strings.TrimSpace(strings.Join([]string{t.state.Slots.OutletName, t.state.Slots.OutletArea}, " "))
	}
	enriched := BuildOutletsQueryFromContext(t.state, raw)

	p.publishNode(t, nodeCallOutlets, events.TypeNodeStart, map[string]any{"query": enriched})
	t.actions = append(t.actions, model.ToolAction{
		Type: model.ActionToolCall,
		Tool: "outlets",
		Args: map[string]any{"query": enriched},
	})

	result, err := p.outlets.Query(ctx, enriched)
	if err != nil {
		p.recordToolError(t, nodeCallOutlets, "outlets", outletErrorType(err), err)
		return nodeSynthesize, nil
	}

	t.state.Metadata["outletsContext"] = map[string]any{
		"lastRawQuestion":   raw,
		"lastEnrichedQuery": enriched,
	}
	p.recordToolResult(t, nodeCallOutlets, "outlets", model.ResultToMap(result))
	return nodeSynthesize, nil
}

func outletErrorType(err error) string {
	var execErr *outlets.ExecutionError
	if errors.As(err, &execErr) {
		return "outlet_exec_error"
	}
	return "outlet_query_error"
}

func (p *Planner) respondSmalltalk(ctx context.Context, t *turn) (node, error) {
	p.publishNode(t, nodeRespondSmalltalk, events.TypeNodeStart, nil)
	t.actions = append(t.actions, model.ToolAction{
		Type:    model.ActionDecision,
		Status:  model.StatusSuccess,
		Message: "Responded with small-talk guidance.",
		Data:    map[string]any{"decision": string(model.DecisionRespondSmalltalk)},
	})
	p.publishNode(t, nodeRespondSmalltalk, events.TypeNodeEnd, nil)
	return nodeSynthesize, nil
}

func (p *Planner) synthesize(ctx context.Context, t *turn) (node, error) {
	p.publishNode(t, nodeSynthesize, events.TypeNodeStart, nil)

	vars := map[string]string{
		"conversation": formatConversation(t.state.Messages),
		"intent":       string(t.state.Intent),
		"slots_json":   slotsJSON(t.state.Slots),
		"tool_summary": buildToolSummary(t.state),
	}
	message := ruleBasedMessage(t.state)
	result, ok := invokeStep[SynthesisResult](ctx, p, t, nodeSynthesize, prompts.Synthesis, vars, nil)
	if ok {
		message = result.Message
		if result.FollowUp != "" {
			message += "\n\n" + result.FollowUp
		}
	}

	t.response = message
	p.publishNode(t, nodeSynthesize, events.TypeNodeEnd, map[string]any{"response": message})
	return nodeEnd, nil
}

// recordToolError captures a capability failure into state so the reply can
// surface it. The error never escapes the turn.
func (p *Planner) recordToolError(t *turn, n node, tool, errType string, err error) {
	var calcErr *calculator.Error
	var prodErr *products.Error
	var queryErr *outlets.QueryError
	var execErr *outlets.ExecutionError
	message := "The tool could not complete the request."
	switch {
	case errors.As(err, &calcErr):
		message = calcErr.Message
	case errors.As(err, &prodErr):
		message = prodErr.Message
	case errors.As(err, &queryErr):
		message = queryErr.Message
	case errors.As(err, &execErr):
		message = execErr.Message
	}

	t.state.Error = &model.ErrorState{Type: errType, Message: message}
	t.state.Tools = model.ToolState{}
	t.actions = append(t.actions, model.ToolAction{
		Type:    model.ActionToolResult,
		Tool:    tool,
		Status:  model.StatusError,
		Message: message,
	})
	logx.Warn().
		Str("session_id", t.state.SessionID).
		Str("tool", tool).
		Str("error_type", errType).
		Err(err).
		Msg("tool call failed")
	p.publishNode(t, n, events.TypeNodeEnd, map[string]any{"status": string(model.StatusError)})
}

// recordToolResult stores a successful capability result and clears any error
// carried over from a previous failed attempt.
func (p *Planner) recordToolResult(t *turn, n node, tool string, result map[string]any) {
	t.state.Tools = model.ToolState{LastTool: tool, LastResult: result}
	t.state.Error = nil
	t.actions = append(t.actions, model.ToolAction{
		Type:   model.ActionToolResult,
		Tool:   tool,
		Status: model.StatusSuccess,
		Data:   result,
	})
	p.publishNode(t, n, events.TypeNodeEnd, map[string]any{"status": string(model.StatusSuccess)})
}

// invokeStep runs one budgeted structured model call for a node, emitting the
// matching llm_call event. Returns false when the call was skipped or failed;
// the caller falls back to its rule-based path.
func invokeStep[T any](ctx context.Context, p *Planner, t *turn, n node,
	prompt prompts.StructuredPrompt, vars map[string]string,
	extraOf func(T) map[string]any) (T, bool) {

	var zero T
	if !t.budget.Consume() {
		p.emitLLMCall(t, n, prompt.ID, "skipped", 0, map[string]any{"reason": "budget_exhausted"})
		return zero, false
	}

	variables := make(map[string]any, len(vars))
	for k, v := range vars {
		variables[k] = v
	}

	start := time.Now()
	result, err := llm.Invoke[T](ctx, p.invoker, prompt.Render(vars), variables, prompt.ID)
	latency := time.Since(start)
	if err != nil {
		logx.Warn().
			Str("session_id", t.state.SessionID).
			Str("prompt_id", prompt.ID).
			Err(err).
			Msg("structured model call failed")
		p.emitLLMCall(t, n, prompt.ID, "error", latency, map[string]any{"error": err.Error()})
		return zero, false
	}

	var extra map[string]any
	if extraOf != nil {
		extra = extraOf(result)
	}
	p.emitLLMCall(t, n, prompt.ID, "success", latency, extra)
	return result, true
}

func (p *Planner) emitLLMCall(t *turn, n node, promptID, status string, latency time.Duration, extra map[string]any) {
	data := map[string]any{
		"promptId":       promptID,
		"status":         status,
		"callsUsed":      t.budget.Used(),
		"maxCalls":       t.budget.Max(),
		"remainingCalls": t.budget.Remaining(),
	}
	if latency > 0 {
		data["latencyMs"] = latency.Milliseconds()
	}
	for k, v := range extra {
		data[k] = v
	}
	p.publish(t.state.SessionID, events.Event{
		Type: events.TypeLLMCall,
		Node: string(n),
		Data: data,
	})
}

func (p *Planner) publishNode(t *turn, n node, eventType string, data map[string]any) {
	p.publish(t.state.SessionID, events.Event{Type: eventType, Node: string(n), Data: data})
}

func (p *Planner) publish(sessionID string, ev events.Event) {
	ev.SessionID = sessionID
	ev.Timestamp = time.Now().UTC()
	p.broker.Publish(sessionID, ev)
}

// priorMessages drops the latest user message so prompts that take it as a
// separate variable do not see it twice.
func priorMessages(messages []model.ChatMessage) []model.ChatMessage {
	if len(messages) == 0 {
		return nil
	}
	return messages[:len(messages)-1]
}

// formatConversation renders the most recent messages as "role: content"
// lines for prompt context.
func formatConversation(messages []model.ChatMessage) string {
	if len(messages) > conversationWindow {
		messages = messages[len(messages)-conversationWindow:]
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, string(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

func slotsJSON(slots model.SlotState) string {
	m := slots.ToMap()
	if len(m) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(m))
	for _, key := range []string{"calcExpression", "productQuery", "outletArea", "outletName"} {
		if v, ok := m[key]; ok {
			parts = append(parts, fmt.Sprintf("%q: %q", key, v))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
