// Package metrics exposes the Prometheus instruments shared by the HTTP
// layer. Registration happens once at package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts completed planner turns by outcome.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_turns_total",
		Help: "Completed planner turns by outcome.",
	}, []string{"outcome"})

	// TurnDuration observes end-to-end turn latency.
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_turn_duration_seconds",
		Help:    "End-to-end planner turn latency.",
		Buckets: prometheus.DefBuckets,
	})

	// ToolCallsTotal counts capability invocations by tool and status.
	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_tool_calls_total",
		Help: "Capability invocations by tool and status.",
	}, []string{"tool", "status"})

	// EventsStreamed counts events delivered over the SSE surface.
	EventsStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_events_streamed_total",
		Help: "Events delivered to SSE subscribers.",
	})

	// RequestsTotal counts HTTP requests by route and status class.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status class.",
	}, []string{"route", "status"})
)
