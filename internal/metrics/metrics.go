// Package metrics holds the prometheus collectors for synthesis and
// value conversion.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orm_mirror"

// Metrics is one set of collectors registered on a single registerer.
type Metrics struct {
	ModelsSynthesized prometheus.Counter
	FieldsTranslated  *prometheus.CounterVec
	FieldsSkipped     *prometheus.CounterVec
	Warnings          *prometheus.CounterVec
	ValueErrors       *prometheus.CounterVec
	EnginesOpen       prometheus.Gauge
	OpenDuration      prometheus.Histogram
}

// New registers a fresh set of collectors on reg. A nil reg leaves them
// unregistered, which tests use to avoid clashes on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ModelsSynthesized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "models_synthesized_total",
			Help:      "The number of synthesized model types",
		}),
		FieldsTranslated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_translated_total",
			Help:      "The number of translated fields by field type",
		}, []string{"type"}),
		FieldsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_skipped_total",
			Help:      "The number of source fields left out of a synthesized model",
		}, []string{"kind"}),
		Warnings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "The number of recoverable warnings by code",
		}, []string{"code"}),
		ValueErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "value_errors_total",
			Help:      "The number of values rejected on encode or decode",
		}, []string{"model"}),
		EnginesOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engines_open",
			Help:      "The number of open database engines",
		}),
		OpenDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_open_duration_seconds",
			Help:      "The duration of opening and pinging an engine",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

var defaultMetrics = New(prometheus.DefaultRegisterer)

// Default returns the collectors registered on the default registry.
func Default() *Metrics { return defaultMetrics }

// Discard returns collectors that are not registered anywhere.
func Discard() *Metrics { return New(nil) }
