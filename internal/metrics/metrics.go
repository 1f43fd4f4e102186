// Package metrics exposes pipeline counters for operators chasing decode
// and upstream regressions.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the pipeline instrumentation.
type Metrics struct {
	Requests           prometheus.Counter
	CandidatesRejected *prometheus.CounterVec
	DecodeRepairs      *prometheus.CounterVec
	ArtifactsProduced  prometheus.Counter
	RequestDuration    prometheus.Histogram
}

// New creates and registers the pipeline metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dualsub",
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Subtitle-list requests processed.",
		}),
		CandidatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dualsub",
			Subsystem: "pipeline",
			Name:      "candidates_rejected_total",
			Help:      "Subtitle candidates dropped, by reason.",
		}, []string{"reason"}),
		DecodeRepairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dualsub",
			Subsystem: "pipeline",
			Name:      "decode_repairs_total",
			Help:      "Mojibake repair attempts, by branch.",
		}, []string{"branch"}),
		ArtifactsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dualsub",
			Subsystem: "pipeline",
			Name:      "artifacts_total",
			Help:      "Merged SRT artifacts published.",
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dualsub",
			Subsystem: "pipeline",
			Name:      "request_duration_seconds",
			Help:      "End-to-end duration of subtitle-list requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	reg.MustRegister(
		m.Requests,
		m.CandidatesRejected,
		m.DecodeRepairs,
		m.ArtifactsProduced,
		m.RequestDuration,
	)

	return m
}
