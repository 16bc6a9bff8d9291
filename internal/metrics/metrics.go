// Package metrics holds the Prometheus series exported by cycleglobe serve.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll Metrics
var (
	// PollsTotal counts finished polls by outcome ("source" or "fallback")
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cycleglobe_polls_total",
			Help: "Finished polls by outcome",
		},
		[]string{"outcome"},
	)

	// PollsSkippedTotal counts ticks dropped because a poll was still running
	PollsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cycleglobe_polls_skipped_total",
			Help: "Poll ticks skipped while a previous poll was in flight",
		},
	)

	// PollDuration tracks how long a whole poll took, fallback included
	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cycleglobe_poll_duration_seconds",
			Help:    "Poll duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Source Metrics
var (
	// SourceAttemptsTotal counts source requests by source and result
	SourceAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cycleglobe_source_attempts_total",
			Help: "Source attempts by source and result (ok, error, open)",
		},
		[]string{"source", "result"},
	)

	// SourceBreakerState tracks per-source circuit state (0=closed, 1=half-open, 2=open)
	SourceBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cycleglobe_source_breaker_state",
			Help: "Per-source circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)
)

// WebSocket Metrics
var (
	// WebSocketClients tracks connected /ws clients
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cycleglobe_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)

	// WebSocketSlowClientsEvicted counts clients dropped for a full send buffer
	WebSocketSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cycleglobe_websocket_slow_clients_evicted_total",
			Help: "WebSocket clients evicted because their send buffer was full",
		},
	)

	// WebSocketRejected counts upgrades refused at the client limit
	WebSocketRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cycleglobe_websocket_rejected_total",
			Help: "WebSocket upgrades rejected at the connection limit",
		},
	)
)
