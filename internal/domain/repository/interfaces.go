package repository

import (
	"context"
	"time"

	"MarketWatch/internal/domain/models"
)

// LevelProvider serves economic indicator levels. Short results inside the
// requested range are valid and are not reported as errors.
type LevelProvider interface {
	Name() string
	FetchSeries(ctx context.Context, seriesID string, start, end time.Time) (*models.Series, error)
}

// ComparisonProvider serves a relative 0-100 index for up to MaxKeys keys per
// request. Every key of a request is normalised against the same maximum.
type ComparisonProvider interface {
	Name() string
	MaxKeys() int
	FetchComparison(ctx context.Context, keys []string, tf Timeframe, geo string) (map[string]*models.Series, error)
}

// ArtifactWriter exports a run result. Writers must produce a placeholder
// artifact when the result is the "no data" sentinel.
type ArtifactWriter interface {
	Name() string
	Write(ctx context.Context, res *models.Result) (string, error)
}

type Metrics interface {
	RecordFetchAttempt(provider string, outcome models.Outcome)
	RecordDiagnostic(kind models.DiagnosticKind)
	RecordRescaleFactor(source string, batch int, scale float64)
	RecordPanel(rows, columns int)
	RecordLatency(stage string, seconds float64)
}
