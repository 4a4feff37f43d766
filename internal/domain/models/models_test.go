package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

func TestNewSeriesSortsAndRejects(t *testing.T) {
	s, err := NewSeries("x", FrequencyDaily, UnitIndex, []Point{{d(2024, 1, 2), 2}, {d(2024, 1, 1), 1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Values())

	_, err = NewSeries("x", FrequencyDaily, UnitIndex, []Point{{d(2024, 1, 1), 1}, {d(2024, 1, 1), 2}})
	assert.Error(t, err)

	_, err = NewSeries("x", FrequencyDaily, UnitIndex, []Point{{d(2024, 1, 1), math.NaN()}})
	assert.Error(t, err)
}

func TestSeriesStats(t *testing.T) {
	s := MustSeries("x", FrequencyDaily, UnitIndex, []Point{{d(2024, 1, 1), 4}, {d(2024, 1, 2), 1}, {d(2024, 1, 3), 10}, {d(2024, 1, 4), 5}})
	assert.Equal(t, 5.0, s.Mean())
	assert.Equal(t, 10.0, s.Max())
	assert.Equal(t, 4.5, s.Median())
	assert.Equal(t, []float64{1, 10}, s.Window(d(2024, 1, 2), d(2024, 1, 3)).Values())
	assert.Equal(t, []float64{8, 2, 20, 10}, s.Scale(2).Values())
	assert.Equal(t, []float64{4, 1, 10, 5}, s.Values(), "scale must not modify the receiver")

	empty := MustSeries("e", FrequencyDaily, UnitIndex, nil)
	assert.True(t, math.IsNaN(empty.Mean()))
	assert.True(t, math.IsNaN(empty.Median()))
}

func TestInferFrequency(t *testing.T) {
	daily := []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3), d(2024, 1, 5)}
	monthly := []time.Time{d(2024, 1, 1), d(2024, 2, 1), d(2024, 3, 1)}
	weekly := []time.Time{d(2024, 1, 1), d(2024, 1, 8), d(2024, 1, 15)}

	assert.Equal(t, FrequencyDaily, InferFrequency(daily))
	assert.Equal(t, FrequencyMonthly, InferFrequency(monthly))
	assert.Equal(t, FrequencyIrregular, InferFrequency(weekly))
	assert.Equal(t, FrequencyIrregular, InferFrequency(daily[:1]))
}

func TestPanel(t *testing.T) {
	idx := []time.Time{d(2024, 1, 31), d(2024, 2, 29)}
	p, err := NewPanel(idx, []Column{{Name: "a", Values: []float64{1, 2}}, {Name: "b", Values: []float64{3, 4}}})
	require.NoError(t, err)
	assert.False(t, p.NoData())
	assert.Equal(t, []string{"a", "b"}, p.Columns())
	v, ok := p.Value("b", 1)
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	_, err = NewPanel(idx, []Column{{Name: "a", Values: []float64{1}}})
	assert.Error(t, err)
	_, err = NewPanel([]time.Time{idx[1], idx[0]}, nil)
	assert.Error(t, err)

	assert.True(t, NoDataPanel().NoData())
	var nilPanel *Panel
	assert.True(t, nilPanel.NoData())
}

func TestSourceErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(&SourceError{Source: "vix", Kind: ErrSourceUnavailable, Attempts: 3, Err: cause})
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "vix: source unavailable after 3 attempts: boom", err.Error())

	assert.Equal(t, DiagSourceUnavailable, DiagnosticFor("vix", err).Kind)
	assert.Equal(t, DiagEmptyResult, DiagnosticFor("vix", &SourceError{Source: "vix", Kind: ErrEmptyResult}).Kind)
	assert.True(t, errors.Is(ConfigError("bad %d", 1), ErrConfig))
}

func TestBatchNewKeys(t *testing.T) {
	first := &Batch{Number: 1, Keys: []string{"a", "b"}, Anchor: "a"}
	later := &Batch{Number: 2, Keys: []string{"a", "c"}, Anchor: "a"}
	assert.Equal(t, []string{"a", "b"}, first.NewKeys())
	assert.Equal(t, []string{"c"}, later.NewKeys())

	later.Resolve(map[string]*Series{
		"c": MustSeries("c", FrequencyDaily, UnitIndex, []Point{{d(2024, 1, 1), 1}}),
		"z": MustSeries("z", FrequencyDaily, UnitIndex, []Point{{d(2024, 1, 1), 1}}),
	})
	assert.True(t, later.Resolved())
	_, ok := later.Series("z")
	assert.False(t, ok)
}

func TestRunConfigWindow(t *testing.T) {
	c := RunConfig{End: d(2024, 3, 31), MonthsBack: 1}
	assert.Equal(t, d(2024, 2, 29), c.Start())
	c.MonthsBack = 18
	assert.Equal(t, d(2022, 9, 30), c.Start())
	c.End, c.MonthsBack = d(2024, 6, 15), 6
	assert.Equal(t, d(2023, 12, 15), c.Start())
}

func TestSourceColumns(t *testing.T) {
	s := SourceSpec{Name: "t", Provider: ProviderTrends, Keywords: []string{"a", "b"}, AverageColumn: "avg", Axis: AxisLeft, Unit: UnitIndex}
	cols := s.Columns()
	require.Len(t, cols, 3)
	assert.Equal(t, "avg", cols[2].Name)
	assert.Equal(t, UnitIndex, cols[0].Unit)

	m2 := SourceSpec{Name: "m2", Provider: ProviderFRED, Transform: TransformYoY, Unit: UnitLevel}
	assert.Equal(t, UnitPercent, m2.Columns()[0].Unit)
}
