package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
)

var errUnavailable = errors.New("connection refused")

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func series(key string, pts ...models.Point) *models.Series {
	return models.MustSeries(key, models.FrequencyDaily, models.UnitIndex, pts)
}

func pt(t time.Time, v float64) models.Point { return models.Point{Time: t, Value: v} }

// fakeLevels serves scripted series per id; missing ids always fail.
type fakeLevels struct {
	mu     sync.Mutex
	series map[string]*models.Series
	err    map[string]error
	calls  map[string]int
}

func newFakeLevels() *fakeLevels {
	return &fakeLevels{series: map[string]*models.Series{}, err: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeLevels) Name() string { return "fake-levels" }

func (f *fakeLevels) FetchSeries(_ context.Context, id string, start, end time.Time) (*models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if err, ok := f.err[id]; ok {
		return nil, err
	}
	s, ok := f.series[id]
	if !ok {
		return nil, errUnavailable
	}
	return s.Window(start, end), nil
}

// fakeComparison delegates every request to fn and records the timeframes.
type fakeComparison struct {
	mu    sync.Mutex
	fn    func(keys []string, tf drepo.Timeframe) (map[string]*models.Series, error)
	calls []comparisonCall
}

type comparisonCall struct {
	Keys []string
	TF   drepo.Timeframe
}

func (f *fakeComparison) Name() string { return "fake-comparison" }
func (f *fakeComparison) MaxKeys() int { return 5 }

func (f *fakeComparison) FetchComparison(_ context.Context, keys []string, tf drepo.Timeframe, _ string) (map[string]*models.Series, error) {
	f.mu.Lock()
	f.calls = append(f.calls, comparisonCall{Keys: append([]string(nil), keys...), TF: tf})
	f.mu.Unlock()
	return f.fn(keys, tf)
}

type fakeMetrics struct {
	mu          sync.Mutex
	attempts    map[models.Outcome]int
	diagnostics map[models.DiagnosticKind]int
	scales      map[int]float64
	rows, cols  int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		attempts:    map[models.Outcome]int{},
		diagnostics: map[models.DiagnosticKind]int{},
		scales:      map[int]float64{},
	}
}

func (m *fakeMetrics) RecordFetchAttempt(_ string, o models.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[o]++
}

func (m *fakeMetrics) RecordDiagnostic(k models.DiagnosticKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diagnostics[k]++
}

func (m *fakeMetrics) RecordRescaleFactor(_ string, batch int, scale float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scales[batch] = scale
}

func (m *fakeMetrics) RecordPanel(rows, cols int) { m.rows, m.cols = rows, cols }

func (m *fakeMetrics) RecordLatency(string, float64) {}
