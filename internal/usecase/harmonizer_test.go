package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	"MarketWatch/pkg/logger"
	"MarketWatch/pkg/util"
)

var runEnd = day(2024, 6, 30)

func levelSources() []models.SourceSpec {
	return []models.SourceSpec{
		{Name: "m2", Provider: models.ProviderFRED, SeriesID: "M2SL", Aggregation: models.AggregateLast, Transform: models.TransformYoY, Axis: models.AxisLeft},
		{Name: "hy", Provider: models.ProviderFRED, SeriesID: "HY", Aggregation: models.AggregateMean, Transform: models.TransformBps, Axis: models.AxisLeft},
		{Name: "vix", Provider: models.ProviderFRED, SeriesID: "VIXCLS", Aggregation: models.AggregateMean, Axis: models.AxisRight},
	}
}

func runConfig(sources ...models.SourceSpec) models.RunConfig {
	return models.RunConfig{
		Sources:       sources,
		BatchCapacity: 5,
		RetryAttempts: 3,
		MonthsBack:    6,
		UnitThreshold: DefaultUnitThreshold,
		End:           runEnd,
	}
}

// firstOfMonth builds a level series dated on the first of each month.
func firstOfMonth(key string, from time.Time, vals ...float64) *models.Series {
	pts := make([]models.Point, len(vals))
	for i, v := range vals {
		pts[i] = pt(from.AddDate(0, i, 0), v)
	}
	return models.MustSeries(key, models.FrequencyMonthly, models.UnitLevel, pts)
}

func seededLevels() *fakeLevels {
	f := newFakeLevels()
	m2 := make([]float64, 19) // Dec 2022 .. Jun 2024
	for i := range m2 {
		m2[i] = 100
	}
	for i := 12; i < len(m2); i++ {
		m2[i] = 105
	}
	f.series["M2SL"] = firstOfMonth("M2SL", day(2022, 12, 1), m2...)
	f.series["HY"] = firstOfMonth("HY", day(2023, 12, 1), 3.5, 3.5, 3.5, 3.5, 3.5, 3.5, 3.5)
	return f
}

func TestRunOneSourceFails(t *testing.T) {
	levels := seededLevels()
	m := newFakeMetrics()
	h := NewHarmonizer(runConfig(levelSources()...), levels, nil, m, logger.Nop())

	res, err := h.Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.NoData())

	p := res.Panel
	assert.Equal(t, []string{"m2", "hy"}, p.Columns())
	assert.Equal(t, 7, p.Len())
	assert.Equal(t, day(2023, 12, 31), p.Index()[0])
	assert.Equal(t, runEnd, p.Index()[6])

	m2, _ := p.Column("m2")
	for _, v := range m2 {
		assert.InDelta(t, 5.0, v, 1e-9)
	}
	hy, _ := p.Column("hy")
	for _, v := range hy {
		assert.InDelta(t, 350.0, v, 1e-9)
	}

	assert.Equal(t, 3, levels.calls["VIXCLS"])
	assert.True(t, res.Report.Has(models.DiagSourceUnavailable, "vix"))
	assert.True(t, res.Report.Has(models.DiagAmbiguousUnit, "hy"))
	assert.False(t, res.Report.Has(models.DiagAllSourcesFailed, ""))
	require.Len(t, res.Report.Sources, 3)
	assert.True(t, res.Report.Sources[0].OK())
	assert.False(t, res.Report.Sources[2].OK())
	assert.Len(t, res.Columns, 3)
	assert.Equal(t, 7, m.rows)
	assert.Equal(t, 2, m.cols)
}

func TestRunYoYFetchesExtraYear(t *testing.T) {
	levels := seededLevels()
	h := NewHarmonizer(runConfig(levelSources()[0]), levels, nil, nil, logger.Nop())
	res, err := h.Run(context.Background())
	require.NoError(t, err)
	first := res.Panel.Index()[0]
	assert.Equal(t, util.MonthEnd(day(2023, 12, 1)), first)
}

func TestRunAllSourcesFail(t *testing.T) {
	levels := newFakeLevels()
	h := NewHarmonizer(runConfig(levelSources()...), levels, nil, nil, logger.Nop())

	res, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NoData())
	assert.True(t, res.Report.Has(models.DiagAllSourcesFailed, ""))
	for _, s := range res.Report.Sources {
		assert.True(t, errors.Is(s.Err, models.ErrSourceUnavailable), s.Name)
	}
}

func TestRunEmptyResultIsDistinct(t *testing.T) {
	levels := newFakeLevels()
	levels.err["VIXCLS"] = models.ErrEmptyResult
	h := NewHarmonizer(runConfig(levelSources()[2]), levels, nil, nil, logger.Nop())

	res, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Report.Has(models.DiagEmptyResult, "vix"))
	assert.False(t, res.Report.Has(models.DiagSourceUnavailable, "vix"))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHarmonizer(runConfig(levelSources()...), seededLevels(), nil, nil, logger.Nop())
	_, err := h.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func trendsSource() models.SourceSpec {
	return models.SourceSpec{
		Name:          "trends",
		Provider:      models.ProviderTrends,
		Keywords:      []string{"a", "b", "c", "d", "e", "f"},
		Timeframes:    []string{"today 6-m", "today 12-m"},
		Aggregation:   models.AggregateLast,
		Transform:     models.TransformNone,
		Axis:          models.AxisRight,
		AverageColumn: "trends_avg",
	}
}

func TestRunComparisonRescalesAndFallsBack(t *testing.T) {
	days := []time.Time{day(2024, 5, 1), day(2024, 5, 2), day(2024, 6, 1)}
	values := func(vs ...float64) []models.Point {
		pts := make([]models.Point, len(vs))
		for i, v := range vs {
			pts[i] = pt(days[i], v)
		}
		return pts
	}

	cmp := &fakeComparison{fn: func(keys []string, tf drepo.Timeframe) (map[string]*models.Series, error) {
		if tf == drepo.TFToday6M {
			return nil, models.ErrEmptyResult
		}
		second := strings.Join(keys, ",") == "a,f"
		out := map[string]*models.Series{}
		for _, k := range keys {
			switch {
			case k == "a" && second:
				out[k] = series(k, values(20, 30, 40)...)
			case k == "a":
				out[k] = series(k, values(40, 60, 80)...)
			default:
				out[k] = series(k, values(10, 10, 10)...)
			}
		}
		return out, nil
	}}
	m := newFakeMetrics()
	h := NewHarmonizer(runConfig(trendsSource()), nil, cmp, m, logger.Nop())

	res, err := h.Run(context.Background())
	require.NoError(t, err)

	p := res.Panel
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "trends_avg"}, p.Columns())
	assert.Equal(t, []time.Time{day(2024, 5, 31), runEnd}, p.Index())

	f, _ := p.Column("f")
	assert.InDeltaSlice(t, []float64{20, 20}, f, 1e-9)
	a, _ := p.Column("a")
	assert.Equal(t, []float64{60, 80}, a)
	avg, _ := p.Column("trends_avg")
	assert.InDeltaSlice(t, []float64{20, 140.0 / 6}, avg, 1e-9)

	assert.Equal(t, "today 12-m", res.Report.Timeframe["trends"])
	assert.InDelta(t, 2.0, m.scales[2], 1e-9)
	require.Len(t, res.Report.Batches, 2)
	assert.Equal(t, models.RescaleScaled, res.Report.Batches[1].Flag)

	// batch 1 tried both timeframes, batch 2 only the one that worked
	var second []drepo.Timeframe
	for _, c := range cmp.calls {
		if strings.Join(c.Keys, ",") == "a,f" {
			second = append(second, c.TF)
		}
	}
	assert.Equal(t, []drepo.Timeframe{drepo.TFToday12M}, second)
	assert.Equal(t, 3, m.attempts[models.OutcomeEmpty])
}

func TestRunComparisonLaterBatchFails(t *testing.T) {
	cmp := &fakeComparison{fn: func(keys []string, _ drepo.Timeframe) (map[string]*models.Series, error) {
		if strings.Join(keys, ",") == "a,f" {
			return nil, errUnavailable
		}
		out := map[string]*models.Series{}
		for _, k := range keys {
			out[k] = series(k, pt(day(2024, 5, 1), 50))
		}
		return out, nil
	}}
	src := trendsSource()
	src.Timeframes = nil
	h := NewHarmonizer(runConfig(src), nil, cmp, nil, logger.Nop())

	res, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "trends_avg"}, res.Panel.Columns())
	assert.True(t, res.Report.Has(models.DiagSourceUnavailable, "trends/batch-2"))
	assert.Equal(t, models.RescaleFailed, res.Report.Batches[1].Flag)

	// no configured timeframe means the explicit window is requested
	assert.Equal(t, drepo.RangeTimeframe(runConfig().Start(), runEnd), cmp.calls[0].TF)
}
