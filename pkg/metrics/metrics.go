// Package metrics records conversion counters in Prometheus form.
//
// A batch run is short-lived, so metrics are written once at the end in
// node_exporter textfile format instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Document outcome label values.
const (
	StatusConverted = "converted"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Recorder holds the conversion metrics on a private registry.
// A nil *Recorder accepts every call and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	documentsTotal   *prometheus.CounterVec
	spansTotal       *prometheus.CounterVec
	tokensTotal      prometheus.Counter
	warningsTotal    *prometheus.CounterVec
	documentDuration prometheus.Histogram
}

// New creates a Recorder with its metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bio2brat_documents_total",
				Help: "Count of documents processed by outcome",
			},
			[]string{"status"},
		),
		spansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bio2brat_spans_total",
				Help: "Count of entity spans written by type",
			},
			[]string{"type"},
		),
		tokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bio2brat_tokens_total",
				Help: "Count of token records read",
			},
		),
		warningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bio2brat_warnings_total",
				Help: "Count of decoding warnings by kind",
			},
			[]string{"kind"},
		),
		documentDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bio2brat_document_duration_seconds",
				Help:    "Time to convert one document",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
	}

	r.registry.MustRegister(
		r.documentsTotal,
		r.spansTotal,
		r.tokensTotal,
		r.warningsTotal,
		r.documentDuration,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Document counts one document outcome.
func (r *Recorder) Document(status string) {
	if r == nil {
		return
	}
	r.documentsTotal.WithLabelValues(status).Inc()
}

// Span counts one written span of the given type.
func (r *Recorder) Span(spanType string) {
	if r == nil {
		return
	}
	r.spansTotal.WithLabelValues(spanType).Inc()
}

// Tokens adds n read tokens.
func (r *Recorder) Tokens(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.tokensTotal.Add(float64(n))
}

// Warning counts one warning of the given kind.
func (r *Recorder) Warning(kind string) {
	if r == nil {
		return
	}
	r.warningsTotal.WithLabelValues(kind).Inc()
}

// ObserveDuration records the time one document took.
func (r *Recorder) ObserveDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.documentDuration.Observe(d.Seconds())
}

// WriteTextfile writes all metrics to path in the node_exporter textfile
// collector format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
