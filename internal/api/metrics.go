package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	Registry     *prometheus.Registry
	MatchTotal   *prometheus.CounterVec
	ChatDuration prometheus.Histogram
	ChatErrors   prometheus.Counter
}

// NewMetrics registers the server collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		MatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "petassist_match_total",
			Help: "Catalog lookups served, by outcome.",
		}, []string{"outcome"}),
		ChatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "petassist_chat_duration_seconds",
			Help:    "Latency of chat turns including LLM calls.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		ChatErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petassist_chat_errors_total",
			Help: "Chat turns that failed on the LLM side.",
		}),
	}
	reg.MustRegister(m.MatchTotal, m.ChatDuration, m.ChatErrors)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *Metrics) observeMatch(matched bool) {
	outcome := "unmatched"
	if matched {
		outcome = "matched"
	}
	m.MatchTotal.WithLabelValues(outcome).Inc()
}
