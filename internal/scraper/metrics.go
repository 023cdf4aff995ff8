package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the extraction pipeline.
type Metrics struct {
	Registry      *prometheus.Registry
	ScrapesTotal  *prometheus.CounterVec
	ModelCalls    *prometheus.CounterVec
	FetchDuration prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	scrapes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yarn_scrapes_total",
			Help: "Product page extractions by parser and outcome.",
		},
		[]string{"parser", "outcome"},
	)
	modelCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yarn_model_calls_total",
			Help: "Language model calls by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yarn_fetch_duration_seconds",
			Help:    "Time spent fetching product pages.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(scrapes, modelCalls, fetchDuration)

	return &Metrics{
		Registry:      registry,
		ScrapesTotal:  scrapes,
		ModelCalls:    modelCalls,
		FetchDuration: fetchDuration,
	}
}

func (m *Metrics) IncScrape(parser, outcome string) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(parser, outcome).Inc()
}

func (m *Metrics) IncModelCall(stage, outcome string) {
	if m == nil {
		return
	}
	m.ModelCalls.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}
