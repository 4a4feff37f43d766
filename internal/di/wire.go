//go:build wireinject
// +build wireinject

package di

import (
	drepo "MarketWatch/internal/domain/repository"
	"MarketWatch/internal/usecase"
	"MarketWatch/pkg/app"
	"MarketWatch/pkg/config"
	"MarketWatch/pkg/metrics"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*app.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(drepo.Metrics), new(*metrics.Recorder)),

		// Providers
		ProvideLevelProvider,
		ProvideComparisonProvider,

		// Pipeline
		ProvideRunConfig,
		usecase.NewHarmonizer,

		// Artifacts
		ProvideWriters,
		ProvideBundler,

		// Application
		app.New,
	)
	return &app.App{}, nil
}
