package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	"MarketWatch/pkg/logger"
	"MarketWatch/pkg/util"
)

// Harmonizer runs the whole pipeline once: sources are fetched one at a time
// in declaration order, transformed per column, and merged into a panel.
type Harmonizer struct {
	cfg        models.RunConfig
	levels     drepo.LevelProvider
	comparison drepo.ComparisonProvider
	metrics    drepo.Metrics
	log        *logger.Logger

	planner    *BatchPlanner
	retrier    *Retrier
	rescaler   *AnchorRescaler
	aligner    *TemporalAligner
	normalizer *UnitNormalizer
	derived    *DerivedMetricEngine
	merger     *MergeEngine
}

// NewHarmonizer wires the pipeline stages from cfg.
func NewHarmonizer(
	cfg models.RunConfig,
	levels drepo.LevelProvider,
	comparison drepo.ComparisonProvider,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Harmonizer {
	capacity := cfg.BatchCapacity
	if comparison != nil && (capacity <= 0 || capacity > comparison.MaxKeys()) {
		capacity = comparison.MaxKeys()
	}
	aligner := NewTemporalAligner()
	return &Harmonizer{
		cfg:        cfg,
		levels:     levels,
		comparison: comparison,
		metrics:    metrics,
		log:        log.With("harmonizer"),
		planner:    NewBatchPlanner(capacity),
		retrier:    NewRetrier(RetryPolicy{Attempts: cfg.RetryAttempts, Pause: cfg.RetryPause}, metrics, log),
		rescaler:   NewAnchorRescaler(metrics, log),
		aligner:    aligner,
		normalizer: NewUnitNormalizer(cfg.UnitThreshold, log),
		derived:    NewDerivedMetricEngine(),
		merger:     NewMergeEngine(aligner, log),
	}
}

// Run executes the pipeline. Per-source failures end up in the report and as
// absent columns; the returned error is reserved for cancellation and broken
// panel invariants. When every source fails the panel is the "no data"
// sentinel.
func (h *Harmonizer) Run(ctx context.Context) (*models.Result, error) {
	report := models.NewReport()
	produced := make(map[string]*models.Series)
	windowStart, windowEnd := util.MonthEnd(h.cfg.Start()), util.MonthEnd(h.cfg.End)

	h.log.Info("run started",
		logger.Date("from", h.cfg.Start()),
		logger.Date("to", h.cfg.End),
		logger.Int("sources", len(h.cfg.Sources)),
	)

	for _, src := range h.cfg.Sources {
		began := time.Now()
		var (
			cols []*models.Series
			err  error
		)
		switch src.Provider {
		case models.ProviderFRED:
			cols, err = h.runLevel(ctx, src, report)
		case models.ProviderTrends:
			cols, err = h.runComparison(ctx, src, report)
		default:
			err = models.ConfigError("source %s: unknown provider %q", src.Name, src.Provider)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("run abandoned: %w", ctxErr)
		}
		h.observe("source:"+src.Name, began)

		status := models.SourceStatus{Name: src.Name, Err: err}
		for _, s := range cols {
			s = s.Window(windowStart, windowEnd)
			if s.Empty() {
				h.addDiagnostic(report, models.Diagnostic{
					Kind:   models.DiagEmptyResult,
					Source: src.Name,
					Detail: fmt.Sprintf("column %s has no observations inside the window", s.Key),
				})
				continue
			}
			produced[s.Key] = s
			status.Columns = append(status.Columns, s.Key)
		}
		if err != nil {
			h.addDiagnostic(report, models.DiagnosticFor(src.Name, err))
			h.log.Warn("source failed, column absent", logger.String("source", src.Name), logger.Error(err))
		}
		report.Sources = append(report.Sources, status)
	}

	began := time.Now()
	panel, err := h.merger.Merge(h.cfg.Columns(), produced)
	if err != nil {
		return nil, err
	}
	h.observe("merge", began)

	if panel.NoData() {
		h.addDiagnostic(report, models.Diagnostic{Kind: models.DiagAllSourcesFailed, Detail: models.ErrAllSourcesFailed.Error()})
	}
	if h.metrics != nil {
		h.metrics.RecordPanel(panel.Len(), len(panel.Columns()))
	}

	return &models.Result{
		Panel:       panel,
		Report:      report,
		Columns:     h.cfg.Columns(),
		Window:      [2]time.Time{h.cfg.Start(), h.cfg.End},
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (h *Harmonizer) runLevel(ctx context.Context, src models.SourceSpec, report *models.Report) ([]*models.Series, error) {
	if h.levels == nil {
		return nil, models.ConfigError("source %s: no level provider configured", src.Name)
	}
	// the first window bucket needs its whole month
	from := util.MonthStart(h.cfg.Start())
	if src.Transform == models.TransformYoY {
		from = from.AddDate(0, -12, 0)
	}

	s, _, err := FetchWithRetry(ctx, h.retrier, h.levels.Name(), src.Name,
		func(ctx context.Context) (*models.Series, error) {
			return h.levels.FetchSeries(ctx, src.SeriesID, from, h.cfg.End)
		},
		(*models.Series).Empty,
	)
	if err != nil {
		return nil, err
	}

	col, err := h.transform(src, s.WithKey(src.Name), report)
	if err != nil {
		return nil, err
	}
	return []*models.Series{col}, nil
}

func (h *Harmonizer) runComparison(ctx context.Context, src models.SourceSpec, report *models.Report) ([]*models.Series, error) {
	if h.comparison == nil {
		return nil, models.ConfigError("source %s: no comparison provider configured", src.Name)
	}
	batches, err := h.planner.Plan(src.Keywords, src.Anchor)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.Name, err)
	}
	mustValidPlan(src.Keywords, batches, h.planner.Capacity())

	timeframes, err := drepo.NormalizeTimeframes(src.Timeframes, h.cfg.Start(), h.cfg.End)
	if err != nil {
		return nil, models.ConfigError("source %s: %v", src.Name, err)
	}

	var (
		chosen   drepo.Timeframe
		firstErr error
	)
	for _, b := range batches {
		candidates := timeframes
		if chosen != "" {
			// later batches must share the scale window of the first success
			candidates = []drepo.Timeframe{chosen}
		}
		label := fmt.Sprintf("%s/batch-%d", src.Name, b.Number)

		var lastErr error
		for _, tf := range candidates {
			keys := b.Keys
			got, _, err := FetchWithRetry(ctx, h.retrier, h.comparison.Name(), label,
				func(ctx context.Context) (map[string]*models.Series, error) {
					return h.comparison.FetchComparison(ctx, keys, tf, src.Geo)
				},
				allEmpty,
			)
			if err == nil {
				b.Resolve(got)
				chosen = tf
				break
			}
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			h.log.Warn("timeframe yielded no data",
				logger.String("source", label),
				logger.String("timeframe", string(tf)),
				logger.Error(err),
			)
		}
		if !b.Resolved() {
			b.Fail(lastErr)
			if firstErr == nil {
				firstErr = lastErr
			}
			if len(batches) > 1 {
				h.addDiagnostic(report, models.DiagnosticFor(label, lastErr))
			}
		}
	}
	if chosen != "" {
		report.Timeframe[src.Name] = string(chosen)
	}

	rescaled := h.rescaler.Rescale(src.Name, src.Keywords, batches)
	report.Batches = append(report.Batches, rescaled.Scales...)
	for _, d := range rescaled.Diagnostics {
		h.addDiagnostic(report, d)
	}
	if len(rescaled.Series) == 0 {
		if firstErr == nil {
			firstErr = &models.SourceError{Source: src.Name, Kind: models.ErrEmptyResult}
		}
		return nil, firstErr
	}

	raw := rescaled.Series
	if src.AverageColumn != "" {
		raw = append(raw, rowMean(src.AverageColumn, rescaled.Series))
	}

	cols := make([]*models.Series, 0, len(raw))
	for _, s := range raw {
		col, err := h.transform(src, s, report)
		if err != nil {
			h.addDiagnostic(report, models.DiagnosticFor(src.Name, err))
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil, &models.SourceError{Source: src.Name, Kind: models.ErrEmptyResult, Err: errors.New("no column survived its transform")}
	}
	return cols, nil
}

// transform resamples one column to month-end and applies its transform.
func (h *Harmonizer) transform(src models.SourceSpec, s *models.Series, report *models.Report) (*models.Series, error) {
	agg := src.Aggregation
	if agg == "" {
		agg = models.AggregateLast
	}
	m := h.aligner.Resample(s, agg)

	switch src.Transform {
	case models.TransformBps:
		out, converted := h.normalizer.Normalize(m)
		if converted {
			h.addDiagnostic(report, h.normalizer.Diagnostic(src.Name, m))
		}
		m = out
	case models.TransformYoY:
		m = h.derived.YearOverYear(m)
	}

	if m.Empty() {
		return nil, &models.SourceError{
			Source: src.Name,
			Kind:   models.ErrEmptyResult,
			Err:    fmt.Errorf("column %s empty after %s transform", s.Key, transformName(src.Transform)),
		}
	}
	return m, nil
}

func (h *Harmonizer) addDiagnostic(report *models.Report, d models.Diagnostic) {
	report.Add(d)
	if h.metrics != nil {
		h.metrics.RecordDiagnostic(d.Kind)
	}
}

func (h *Harmonizer) observe(stage string, began time.Time) {
	if h.metrics != nil {
		h.metrics.RecordLatency(stage, time.Since(began).Seconds())
	}
}

func allEmpty(m map[string]*models.Series) bool {
	for _, s := range m {
		if !s.Empty() {
			return false
		}
	}
	return true
}

// rowMean averages the series present at each timestamp.
func rowMean(key string, series []*models.Series) *models.Series {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, s := range series {
		for _, p := range s.Points() {
			sums[p.Time] += p.Value
			counts[p.Time]++
		}
	}
	points := make([]models.Point, 0, len(sums))
	for t, sum := range sums {
		points = append(points, models.Point{Time: t, Value: sum / float64(counts[t])})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

	freq, unit := models.FrequencyIrregular, models.UnitIndex
	if len(series) > 0 {
		freq, unit = series[0].Frequency, series[0].Unit
	}
	return models.MustSeries(key, freq, unit, points)
}

func transformName(t models.Transform) string {
	if t == "" {
		return string(models.TransformNone)
	}
	return string(t)
}
