package models

import "time"

// RescaleFlag describes how a batch was reconciled with the reference batch.
type RescaleFlag string

const (
	RescaleReference         RescaleFlag = "reference"          // batch 1
	RescaleScaled            RescaleFlag = "scaled"             // anchor overlap or max fallback
	RescaleUnscaled          RescaleFlag = "unscaled"           // zero divisor, scale forced to 1
	RescaleReducedConfidence RescaleFlag = "reduced-confidence" // anchor missing, concatenated as-is
	RescaleFailed            RescaleFlag = "failed"             // batch never resolved
)

// BatchScale is the rescale outcome of one batch.
type BatchScale struct {
	Source  string
	Number  int
	Keys    []string
	Scale   float64
	Overlap int // shared anchor timestamps; 0 means the max fallback was used
	Flag    RescaleFlag
}

// SourceStatus is the per-source outcome of a run.
type SourceStatus struct {
	Name    string
	Columns []string // columns actually produced
	Err     error
}

// OK reports whether the source produced at least one column.
func (s SourceStatus) OK() bool { return len(s.Columns) > 0 }

// Report collects everything a run observed besides the panel itself.
type Report struct {
	Sources     []SourceStatus
	Batches     []BatchScale
	Diagnostics []Diagnostic
	Timeframe   map[string]string // trends source -> timeframe that produced data
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{Timeframe: map[string]string{}}
}

// Add records a diagnostic.
func (r *Report) Add(d Diagnostic) { r.Diagnostics = append(r.Diagnostics, d) }

// Has reports whether a diagnostic of kind was recorded for source.
func (r *Report) Has(kind DiagnosticKind, source string) bool {
	for _, d := range r.Diagnostics {
		if d.Kind == kind && (source == "" || d.Source == source) {
			return true
		}
	}
	return false
}

// Result is what one run hands to the artifact writers.
type Result struct {
	Panel       *Panel
	Report      *Report
	Columns     []ColumnSpec // declared columns, including absent ones
	Window      [2]time.Time
	GeneratedAt time.Time
}

// NoData reports whether the run ended on the "no data" path.
func (r *Result) NoData() bool { return r.Panel.NoData() }

// ColumnSpec returns the declaration of a column.
func (r *Result) ColumnSpec(name string) (ColumnSpec, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}
