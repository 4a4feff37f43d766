package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"MarketWatch/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus. Each
// Recorder owns its registry so a run can be exported on its own.
type Recorder struct {
	registry      *prometheus.Registry
	fetchAttempts *prometheus.CounterVec
	diagnostics   *prometheus.CounterVec
	rescale       *prometheus.GaugeVec
	panelRows     prometheus.Gauge
	panelColumns  prometheus.Gauge
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketwatch_fetch_attempts_total",
				Help: "Fetch attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketwatch_diagnostics_total",
				Help: "Run diagnostics by kind",
			},
			[]string{"kind"},
		),
		rescale: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketwatch_rescale_factor",
				Help: "Anchor rescale factor applied to a comparison batch",
			},
			[]string{"source", "batch"},
		),
		panelRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "marketwatch_panel_rows",
			Help: "Rows in the final panel",
		}),
		panelColumns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "marketwatch_panel_columns",
			Help: "Columns in the final panel",
		}),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketwatch_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordFetchAttempt counts one provider call.
func (r *Recorder) RecordFetchAttempt(provider string, outcome models.Outcome) {
	r.fetchAttempts.WithLabelValues(provider, string(outcome)).Inc()
}

// RecordDiagnostic counts a recorded run diagnostic.
func (r *Recorder) RecordDiagnostic(kind models.DiagnosticKind) {
	r.diagnostics.WithLabelValues(string(kind)).Inc()
}

// RecordRescaleFactor sets the scale applied to a batch.
func (r *Recorder) RecordRescaleFactor(source string, batch int, scale float64) {
	r.rescale.WithLabelValues(source, strconv.Itoa(batch)).Set(scale)
}

// RecordPanel sets the final panel shape.
func (r *Recorder) RecordPanel(rows, columns int) {
	r.panelRows.Set(float64(rows))
	r.panelColumns.Set(float64(columns))
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(stage string, seconds float64) {
	r.latency.WithLabelValues(stage).Observe(seconds)
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes the current metrics in the text exposition format,
// for the node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
