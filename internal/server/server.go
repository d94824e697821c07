package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zus-planner-poc/server/internal/agent/events"
	"github.com/zus-planner-poc/server/internal/agent/model"
	"github.com/zus-planner-poc/server/internal/agent/planner"
	errx "github.com/zus-planner-poc/server/internal/core/error"
	"github.com/zus-planner-poc/server/internal/server/metrics"
	"github.com/zus-planner-poc/server/internal/services/calculator"
	"github.com/zus-planner-poc/server/internal/services/outlets"
	"github.com/zus-planner-poc/server/internal/services/products"
	logx "github.com/zus-planner-poc/server/pkg/logger"
)

// Config holds the HTTP listener settings.
type Config struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"SERVER_PORT" default:"8080"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Server wires the planner and its capabilities onto a chi router.
type Server struct {
	planner  *planner.Planner
	broker   *events.Broker
	calc     planner.Calculator
	products planner.ProductSearcher
	outlets  planner.OutletQuerier
	events   model.EventsConfig
}

func New(pl *planner.Planner, broker *events.Broker,
	calc planner.Calculator, searcher planner.ProductSearcher, querier planner.OutletQuerier,
	eventsCfg model.EventsConfig) *Server {
	return &Server{
		planner:  pl,
		broker:   broker,
		calc:     calc,
		products: searcher,
		outlets:  querier,
		events:   eventsCfg,
	}
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger)

	r.Post("/chat", s.handleChat)
	r.Delete("/chat/session/{sessionID}", s.handleResetSession)
	if s.events.EnableSSE {
		r.Get("/events", s.handleEvents)
	}
	r.Post("/calc", s.handleCalc)
	r.Get("/products", s.handleProducts)
	r.Get("/outlets", s.handleOutlets)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req model.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.New(err, http.StatusBadRequest, errx.BadRequestMessage))
		return
	}

	start := time.Now()
	result, err := s.planner.RunTurn(r.Context(), &req)
	metrics.TurnDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	metrics.TurnsTotal.WithLabelValues("success").Inc()
	for _, action := range result.Actions {
		if action.Type == model.ActionToolResult && action.Tool != "" {
			metrics.ToolCallsTotal.WithLabelValues(action.Tool, string(action.Status)).Inc()
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, errx.New(nil, http.StatusUnprocessableEntity, "sessionId is required"))
		return
	}
	if err := s.planner.ResetSession(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams a session's queued trace events as SSE, with comment
// heartbeats while the backlog is empty. The stream ends when the client goes
// away or maxEvents deliveries have been made.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, errx.New(nil, http.StatusUnprocessableEntity, "sessionId is required"))
		return
	}
	maxEvents := 0
	if raw := r.URL.Query().Get("maxEvents"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, errx.New(err, http.StatusUnprocessableEntity, "maxEvents must be a non-negative integer"))
			return
		}
		maxEvents = n
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errx.New(nil, http.StatusInternalServerError, "streaming unsupported"))
		return
	}

	s.broker.Register(sessionID)
	defer s.broker.Unregister(sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	heartbeat := time.Duration(s.events.HeartbeatSec) * time.Second
	if heartbeat <= 0 {
		heartbeat = 10 * time.Second
	}

	delivered := 0
	for {
		ev, err := s.broker.NextEvent(r.Context(), sessionID, heartbeat)
		switch {
		case err == nil:
			payload, merr := json.Marshal(ev)
			if merr != nil {
				logx.Error().Err(merr).Msg("failed to encode event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
			metrics.EventsStreamed.Inc()
			delivered++
			if maxEvents > 0 && delivered >= maxEvents {
				return
			}
		case errors.Is(err, events.ErrTimeout):
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		default:
			return
		}
	}
}

func (s *Server) handleCalc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expression string `json:"expression"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.New(err, http.StatusBadRequest, errx.BadRequestMessage))
		return
	}
	result, err := s.calc.Evaluate(r.Context(), req.Expression)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	result, err := s.products.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOutlets(w http.ResponseWriter, r *http.Request) {
	result, err := s.outlets.Query(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps typed failures to their HTTP status: AppError carries its
// own status, capability validation errors are caller faults, everything else
// is internal.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := errx.SystemErrorMessage

	var appErr *errx.AppError
	var calcErr *calculator.Error
	var prodErr *products.Error
	var queryErr *outlets.QueryError
	var execErr *outlets.ExecutionError
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status
		message = appErr.Message
	case errors.As(err, &calcErr):
		status = http.StatusBadRequest
		message = calcErr.Message
	case errors.As(err, &prodErr):
		status = http.StatusBadRequest
		message = prodErr.Message
	case errors.As(err, &queryErr):
		status = http.StatusBadRequest
		message = queryErr.Message
	case errors.As(err, &execErr):
		status = http.StatusBadGateway
		message = execErr.Message
	default:
		logx.Error().Err(err).Msg("unhandled error")
	}
	writeJSON(w, status, errorResponse{Error: message})
}
