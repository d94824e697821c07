package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zus-planner-poc/server/internal/agent/events"
	"github.com/zus-planner-poc/server/internal/agent/llm"
	"github.com/zus-planner-poc/server/internal/agent/model"
	"github.com/zus-planner-poc/server/internal/agent/planner"
	"github.com/zus-planner-poc/server/internal/agent/repo"
	"github.com/zus-planner-poc/server/internal/services/calculator"
	"github.com/zus-planner-poc/server/internal/services/outlets"
	"github.com/zus-planner-poc/server/internal/services/products"
)

type serverFixture struct {
	handler http.Handler
	backend *llm.FixtureBackend
	broker  *events.Broker
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	backend := llm.NewFixtureBackend()
	broker := events.NewBroker(200)
	store := repo.NewMemorySessionStore()
	calc := calculator.NewService()
	searcher, err := products.NewSearcher("memory")
	require.NoError(t, err)
	querier, err := outlets.NewQuerier("memory")
	require.NoError(t, err)

	pl := planner.New(
		llm.NewInvoker(backend, 64),
		store, broker, calc, searcher, querier,
		model.PlannerConfig{MaxCallsPerTurn: 4, TimeoutSec: 8},
	)
	srv := New(pl, broker, calc, searcher, querier, model.EventsConfig{
		MaxBacklog:   200,
		HeartbeatSec: 1,
		EnableSSE:    true,
	})
	return &serverFixture{handler: srv.Handler(), backend: backend, broker: broker}
}

func TestChatEndpoint(t *testing.T) {
	f := newServerFixture(t)
	require.NoError(t, f.backend.QueueResponse(planner.IntentResult{Intent: "calc"}))
	require.NoError(t, f.backend.QueueResponse(planner.SlotResult{CalcExpression: "5+10"}))
	require.NoError(t, f.backend.QueueResponse(planner.DecisionResult{Decision: "call_calc"}))
	require.NoError(t, f.backend.QueueResponse(planner.SynthesisResult{Message: "The result for `5+10` is **15**."}))

	body := `{"sessionId":"s1","messages":[{"role":"user","content":"what is 5+10?"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result model.TurnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "The result for `5+10` is **15**.", result.Response.Content)
	assert.NotEmpty(t, result.Actions)
	require.NotNil(t, result.Memory)
	assert.Equal(t, "calc", result.Memory.Tools.LastTool)
}

func TestChatEndpointRejectsBadJSON(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointRejectsInvalidTurn(t *testing.T) {
	f := newServerFixture(t)

	body := `{"sessionId":"","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestResetSessionEndpoint(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/chat/session/s1", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestEventsEndpointStreamsBacklog(t *testing.T) {
	f := newServerFixture(t)
	f.broker.Publish("s1", events.Event{
		SessionID: "s1", Type: events.TypeNodeStart, Node: "classify_intent", Timestamp: time.Now().UTC(),
	})
	f.broker.Publish("s1", events.Event{
		SessionID: "s1", Type: events.TypeNodeEnd, Node: "classify_intent", Timestamp: time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodGet, "/events?sessionId=s1&maxEvents=2", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: ready")
	assert.Contains(t, body, "event: node_start")
	assert.Contains(t, body, "event: node_end")
	assert.Contains(t, body, `"node":"classify_intent"`)
}

func TestEventsEndpointRequiresSessionID(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCalcEndpoint(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/calc", strings.NewReader(`{"expression":"2*(3+4)"}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result model.CalcResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, float64(14), result.Result)
}

func TestCalcEndpointBadExpression(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/calc", strings.NewReader(`{"expression":"1/0"}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Division by zero")
}

func TestProductsEndpoint(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/products?query=matte+black+tumbler", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result model.ProductSearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.TopK)
}

func TestProductsEndpointEmptyQuery(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutletsEndpoint(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/outlets?query=outlets+in+SS2", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result model.OutletQueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Rows)
	assert.Equal(t, "ZUS Coffee SS2", result.Rows[0].Name)
}

func TestHealthEndpoint(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRequestIDHeader(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
