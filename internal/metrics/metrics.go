package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported on /metrics
type Metrics struct {
	OracleCalls    *prometheus.CounterVec
	OracleLatency  *prometheus.HistogramVec
	ScoreSources   *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	GamesFinished  prometheus.Counter
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neuralflux",
			Name:      "oracle_calls_total",
			Help:      "Completion calls by outcome (ok, timeout, network, upstream, empty, disabled, error).",
		}, []string{"outcome"}),
		OracleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "neuralflux",
			Name:      "oracle_call_seconds",
			Help:      "Completion call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 12, 16, 20},
		}, []string{"outcome"}),
		ScoreSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neuralflux",
			Name:      "score_reports_total",
			Help:      "Score reports by source (oracle, heuristic, neutral).",
		}, []string{"source"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neuralflux",
			Name:      "active_sessions",
			Help:      "Live game sessions.",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neuralflux",
			Name:      "games_finished_total",
			Help:      "Sessions that reached game over.",
		}),
	}
	reg.MustRegister(m.OracleCalls, m.OracleLatency, m.ScoreSources, m.ActiveSessions, m.GamesFinished)
	return m
}

// NewNop returns collectors registered on a throwaway registry
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
