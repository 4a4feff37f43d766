package di

import (
	"fmt"
	"time"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	"MarketWatch/internal/repository"
	"MarketWatch/internal/service/fred"
	"MarketWatch/internal/service/trends"
	"MarketWatch/pkg/app"
	"MarketWatch/pkg/config"
	xhttp "MarketWatch/pkg/http"
	"MarketWatch/pkg/logger"
	"MarketWatch/pkg/metrics"
)

// ProvideLogger builds the process logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(cfg.Logger())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideRunConfig freezes the run configuration at the current time.
func ProvideRunConfig(cfg *config.Config) models.RunConfig {
	return cfg.RunConfig(time.Now().UTC())
}

// ProvideLevelProvider creates the FRED client with its own request pacing.
func ProvideLevelProvider(cfg *config.Config) drepo.LevelProvider {
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.HTTP.Timeout),
		xhttp.WithUserAgent(cfg.HTTP.UserAgent),
		xhttp.WithRateLimit(cfg.FRED.RateLimit, 1),
	)
	return fred.New(cfg.FRED.BaseURL, client)
}

// ProvideComparisonProvider creates the Google Trends client. The explore
// endpoint hands out a session cookie the widget endpoint expects.
func ProvideComparisonProvider(cfg *config.Config) drepo.ComparisonProvider {
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.HTTP.Timeout),
		xhttp.WithUserAgent(cfg.HTTP.UserAgent),
		xhttp.WithRateLimit(cfg.Trends.RateLimit, 1),
		xhttp.WithCookieJar(),
	)
	return trends.New(cfg.Trends.BaseURL, cfg.Trends.HL, cfg.Trends.TZ, client)
}

// ProvideWriters selects the enabled artifact writers.
func ProvideWriters(cfg *config.Config, log *logger.Logger) app.Writers {
	out := cfg.Output
	var writers app.Writers
	if out.CSV {
		writers = append(writers, repository.NewCSVWriter(out.Dir, out.Name, log))
	}
	if out.XLSX {
		writers = append(writers, repository.NewXLSXWriter(out.Dir, out.Name, log))
	}
	if out.Chart {
		writers = append(writers, repository.NewChartWriter(out.Dir, out.Name, out.ChartTitle, out.ChartWidth, out.ChartHeight, log))
	}
	return writers
}

// ProvideBundler returns nil when bundling is disabled.
func ProvideBundler(cfg *config.Config, log *logger.Logger) *repository.Bundler {
	if !cfg.Output.Bundle {
		return nil
	}
	return repository.NewBundler(cfg.Output.Dir, cfg.Output.Name, log)
}
