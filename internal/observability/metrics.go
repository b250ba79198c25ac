package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lexmind"

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ChatRequests      *prometheus.CounterVec
	ModelCallDuration *prometheus.HistogramVec
	LookupDuration    *prometheus.HistogramVec
	LookupFailures    *prometheus.CounterVec
	Extractions       *prometheus.CounterVec
	ExtractDuration   *prometheus.HistogramVec
	ActiveSessions    prometheus.Gauge
	Evictions         prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChatRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat pipeline requests by outcome kind.",
		}, []string{"outcome"}),
		ModelCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Model call latency by call type and outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"call", "outcome"}),
		LookupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Enrichment lookup latency by source.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"source"}),
		LookupFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_failures_total",
			Help:      "Failed enrichment lookups by source.",
		}, []string{"source"}),
		Extractions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "File extractions by format and outcome.",
		}, []string{"format", "outcome"}),
		ExtractDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "File extraction latency by format.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"format"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Conversation contexts held in the registry.",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_evictions_total",
			Help:      "Conversation contexts evicted for capacity or idleness.",
		}),
	}
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *Metrics) ObserveChat(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "ok"
	}
	m.ChatRequests.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveModelCall(call string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.ModelCallDuration.WithLabelValues(call, outcome(ok)).Observe(d.Seconds())
}

func (m *Metrics) ObserveLookup(source string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.LookupDuration.WithLabelValues(source).Observe(d.Seconds())
	if !ok {
		m.LookupFailures.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ObserveExtraction(format string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(format, outcome(ok)).Inc()
	m.ExtractDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) IncEvictions() {
	if m == nil {
		return
	}
	m.Evictions.Inc()
}
