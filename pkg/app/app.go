package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	"MarketWatch/internal/repository"
	"MarketWatch/internal/usecase"
	"MarketWatch/pkg/config"
	"MarketWatch/pkg/logger"
	"MarketWatch/pkg/metrics"
)

// Writers is the ordered set of artifact writers a run exports through.
type Writers []drepo.ArtifactWriter

// Summary describes a finished run.
type Summary struct {
	Result    *models.Result
	Artifacts []string
	Bundle    string
}

// App encapsulates one harmonization run and its export.
type App struct {
	cfg        *config.Config
	harmonizer *usecase.Harmonizer
	writers    Writers
	bundler    *repository.Bundler // nil disables bundling
	metrics    *metrics.Recorder
	log        *logger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	harmonizer *usecase.Harmonizer,
	writers Writers,
	bundler *repository.Bundler,
	recorder *metrics.Recorder,
	log *logger.Logger,
) *App {
	return &App{
		cfg:        cfg,
		harmonizer: harmonizer,
		writers:    writers,
		bundler:    bundler,
		metrics:    recorder,
		log:        log.With("app"),
	}
}

// Run executes the run and stops early on SIGINT/SIGTERM.
func (a *App) Run() (*Summary, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			a.log.Warn("shutdown signal received, abandoning run")
			cancel()
		case <-ctx.Done():
		}
	}()

	return a.RunContext(ctx)
}

// RunContext harmonizes, writes every artifact and the optional bundle. The
// "no data" result is not an error: the writers emit placeholders instead.
func (a *App) RunContext(ctx context.Context) (*Summary, error) {
	began := time.Now()

	res, err := a.harmonizer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("harmonize: %w", err)
	}
	if res.NoData() {
		a.log.Warn("no source produced data, writing placeholder artifacts")
	}

	sum := &Summary{Result: res}
	for _, w := range a.writers {
		stage := time.Now()
		path, err := w.Write(ctx, res)
		if err != nil {
			return sum, fmt.Errorf("write %s: %w", w.Name(), err)
		}
		a.observe("write:"+w.Name(), stage)
		sum.Artifacts = append(sum.Artifacts, path)
	}

	if a.bundler != nil && len(sum.Artifacts) > 0 {
		path, err := a.bundler.Bundle(ctx, res.GeneratedAt, sum.Artifacts)
		if err != nil {
			return sum, fmt.Errorf("bundle: %w", err)
		}
		sum.Bundle = path
	}

	a.observe("total", began)
	if path := a.cfg.Metrics.Textfile; path != "" && a.metrics != nil {
		if err := a.metrics.WriteTextfile(path); err != nil {
			// best effort
			a.log.Warn("metrics textfile not written", logger.String("path", path), logger.Error(err))
		}
	}

	a.log.Info("run finished",
		logger.Bool("no_data", res.NoData()),
		logger.Int("rows", res.Panel.Len()),
		logger.Strings("columns", res.Panel.Columns()),
		logger.Int("diagnostics", len(res.Report.Diagnostics)),
		logger.Strings("artifacts", sum.Artifacts),
		logger.Duration("elapsed", time.Since(began)),
	)
	return sum, nil
}

func (a *App) observe(stage string, began time.Time) {
	if a.metrics != nil {
		a.metrics.RecordLatency(stage, time.Since(began).Seconds())
	}
}
