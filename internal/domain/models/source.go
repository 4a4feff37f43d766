package models

import (
	"time"
)

// ProviderKind selects the external provider for a source.
type ProviderKind string

const (
	ProviderFRED   ProviderKind = "fred"
	ProviderTrends ProviderKind = "trends"
)

// Transform is the per-column post-processing applied after resampling.
type Transform string

const (
	TransformNone Transform = "none"
	TransformYoY  Transform = "yoy" // trailing year-over-year growth, percent
	TransformBps  Transform = "bps" // percent vs basis-points heuristic
)

// Axis is the chart axis a column is drawn against.
type Axis string

const (
	AxisLeft  Axis = "left"
	AxisRight Axis = "right"
)

// SourceSpec declares one configured source.
type SourceSpec struct {
	Name        string
	Provider    ProviderKind
	SeriesID    string   // fred
	Keywords    []string // trends, in requested order
	Anchor      string   // trends, defaults to the first keyword
	Timeframes  []string // trends, tried in order
	Geo         string
	Aggregation Aggregation
	Unit        Unit
	Transform   Transform
	Axis        Axis
	// AverageColumn, when set, adds the row-wise mean of the keyword columns.
	AverageColumn string
}

// ColumnSpec describes one declared panel column.
type ColumnSpec struct {
	Name   string
	Source string
	Axis   Axis
	Unit   Unit
}

// Columns expands the source into its declared columns.
func (s SourceSpec) Columns() []ColumnSpec {
	unit := s.Unit
	switch s.Transform {
	case TransformYoY:
		unit = UnitPercent
	case TransformBps:
		unit = UnitBasisPoints
	}
	if s.Provider != ProviderTrends {
		return []ColumnSpec{{Name: s.Name, Source: s.Name, Axis: s.Axis, Unit: unit}}
	}
	out := make([]ColumnSpec, 0, len(s.Keywords)+1)
	for _, k := range s.Keywords {
		out = append(out, ColumnSpec{Name: k, Source: s.Name, Axis: s.Axis, Unit: unit})
	}
	if s.AverageColumn != "" {
		out = append(out, ColumnSpec{Name: s.AverageColumn, Source: s.Name, Axis: s.Axis, Unit: unit})
	}
	return out
}

// RunConfig is the immutable configuration of one run. It is built once and
// passed by value into every component.
type RunConfig struct {
	Sources       []SourceSpec
	BatchCapacity int
	RetryAttempts int
	RetryPause    time.Duration
	MonthsBack    int
	UnitThreshold float64
	End           time.Time // last day of the lookback window
}

// Start returns the first day of the lookback window. The day of month is
// clipped to the target month, so 31 March minus one month is 28/29 February.
func (c RunConfig) Start() time.Time {
	y, m, d := c.End.Date()
	first := time.Date(y, m-time.Month(c.MonthsBack), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// Columns returns every declared column in declaration order.
func (c RunConfig) Columns() []ColumnSpec {
	var out []ColumnSpec
	for _, s := range c.Sources {
		out = append(out, s.Columns()...)
	}
	return out
}

// Source looks up a source by name.
func (c RunConfig) Source(name string) (SourceSpec, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceSpec{}, false
}
