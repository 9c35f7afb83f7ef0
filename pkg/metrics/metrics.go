// Package metrics exposes Prometheus metrics for call sessions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the session metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsTotal   *prometheus.CounterVec
	SessionDuration prometheus.Histogram

	// Audio metrics
	FramesSent          prometheus.Counter
	FramesDropped       *prometheus.CounterVec
	AudioChunksReceived prometheus.Counter
	DecodeFailures      prometheus.Counter
	PendingPlayback     prometheus.Gauge
	InterruptionsTotal  prometheus.Counter

	// Conversation metrics
	ToolCallsTotal *prometheus.CounterVec
	TurnsTotal     *prometheus.CounterVec

	// Report metrics
	ReportsTotal *prometheus.CounterVec
}

// New creates a Metrics instance on a private registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "intake"
	}

	registry := prometheus.NewRegistry()

	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of active call sessions",
		},
	)

	sessionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total call sessions by final state",
		},
		[]string{"outcome"},
	)

	sessionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Call session duration in seconds",
			Buckets:   []float64{5, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	framesSent := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Captured audio frames sent to the model",
		},
	)

	framesDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Captured audio frames dropped before sending",
		},
		[]string{"reason"},
	)

	audioChunksReceived := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_received_total",
			Help:      "Synthesized audio chunks received from the model",
		},
	)

	decodeFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Inbound audio chunks that could not be decoded",
		},
	)

	pendingPlayback := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playback_pending_sources",
			Help:      "Audio buffers scheduled but not yet finished",
		},
	)

	interruptions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interruptions_total",
			Help:      "Times the caller interrupted the assistant",
		},
	)

	toolCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls dispatched",
		},
		[]string{"name", "recognized"},
	)

	turns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Committed transcript turns",
		},
		[]string{"speaker"},
	)

	reports := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Report generations by status",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		sessionsActive,
		sessionsTotal,
		sessionDuration,
		framesSent,
		framesDropped,
		audioChunksReceived,
		decodeFailures,
		pendingPlayback,
		interruptions,
		toolCalls,
		turns,
		reports,
	)

	return &Metrics{
		registry:            registry,
		SessionsActive:      sessionsActive,
		SessionsTotal:       sessionsTotal,
		SessionDuration:     sessionDuration,
		FramesSent:          framesSent,
		FramesDropped:       framesDropped,
		AudioChunksReceived: audioChunksReceived,
		DecodeFailures:      decodeFailures,
		PendingPlayback:     pendingPlayback,
		InterruptionsTotal:  interruptions,
		ToolCallsTotal:      toolCalls,
		TurnsTotal:          turns,
		ReportsTotal:        reports,
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionStarted records a session entering CONNECTING.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

// SessionFinished records a session reaching a final state.
func (m *Metrics) SessionFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.SessionDuration.Observe(d.Seconds())
	}
}

// FrameSent records one outbound frame.
func (m *Metrics) FrameSent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

// FrameDropped records a frame that was not sent.
func (m *Metrics) FrameDropped(reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(reason).Inc()
}

// AudioChunk records an inbound audio chunk; failed reports whether it
// decoded to nothing.
func (m *Metrics) AudioChunk(failed bool) {
	if m == nil {
		return
	}
	m.AudioChunksReceived.Inc()
	if failed {
		m.DecodeFailures.Inc()
	}
}

// SetPendingPlayback records the number of pending playback buffers.
func (m *Metrics) SetPendingPlayback(n int) {
	if m == nil {
		return
	}
	m.PendingPlayback.Set(float64(n))
}

// Interruption records a barge-in.
func (m *Metrics) Interruption() {
	if m == nil {
		return
	}
	m.InterruptionsTotal.Inc()
}

// ToolCall records a dispatched tool call.
func (m *Metrics) ToolCall(name string, recognized bool) {
	if m == nil {
		return
	}
	if !recognized {
		name = "unknown"
	}
	m.ToolCallsTotal.WithLabelValues(name, strconv.FormatBool(recognized)).Inc()
}

// Turn records a committed turn.
func (m *Metrics) Turn(speaker string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(speaker).Inc()
}

// Report records a report generation.
func (m *Metrics) Report(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ReportsTotal.WithLabelValues(status).Inc()
}
