package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	"MarketWatch/pkg/logger"
)

const (
	// DefaultRetryAttempts is the number of tries per batch or series.
	DefaultRetryAttempts = 3
	// DefaultRetryPause is the fixed wait between two tries.
	DefaultRetryPause = 3 * time.Second
)

// RetryPolicy is the bounded, fixed-pause retry loop shared by every fetcher.
// The pause doubles as the only per-attempt spacing; there is no separate
// per-attempt timeout.
type RetryPolicy struct {
	Attempts int
	Pause    time.Duration
}

// Retrier runs fetches under a RetryPolicy and reports every attempt.
type Retrier struct {
	policy  RetryPolicy
	log     *logger.Logger
	metrics drepo.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier. Non-positive attempts and a negative pause
// select the defaults; a zero pause retries immediately.
func NewRetrier(policy RetryPolicy, metrics drepo.Metrics, log *logger.Logger) *Retrier {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultRetryAttempts
	}
	if policy.Pause < 0 {
		policy.Pause = DefaultRetryPause
	}
	return &Retrier{policy: policy, log: log.With("retry"), metrics: metrics, sleep: sleepCtx}
}

// Policy returns the effective policy.
func (r *Retrier) Policy() RetryPolicy { return r.policy }

// FetchWithRetry calls fetch until it yields a non-empty result or the policy
// is exhausted. A provider error and an empty result are distinct outcomes
// that drive the same loop. Exhaustion returns a *models.SourceError whose
// kind is ErrEmptyResult when the last attempt came back empty, otherwise
// ErrSourceUnavailable. Only context cancellation aborts early.
func FetchWithRetry[T any](
	ctx context.Context,
	r *Retrier,
	provider, label string,
	fetch func(ctx context.Context) (T, error),
	empty func(T) bool,
) (T, []models.FetchAttempt, error) {
	var zero T
	attempts := make([]models.FetchAttempt, 0, r.policy.Attempts)

	for n := 1; n <= r.policy.Attempts; n++ {
		v, err := fetch(ctx)
		a := models.FetchAttempt{Label: label, Attempt: n, Err: err}
		switch {
		case err == nil && (empty == nil || !empty(v)):
			a.Outcome = models.OutcomeOK
		case err == nil || errors.Is(err, models.ErrEmptyResult):
			a.Outcome = models.OutcomeEmpty
		default:
			a.Outcome = models.OutcomeError
		}
		attempts = append(attempts, a)
		if r.metrics != nil {
			r.metrics.RecordFetchAttempt(provider, a.Outcome)
		}

		if a.Outcome == models.OutcomeOK {
			r.log.Debug("fetch ok", logger.String("source", label), logger.Int("attempt", n))
			return v, attempts, nil
		}

		fields := []logger.Field{
			logger.String("source", label),
			logger.Int("attempt", n),
			logger.Int("max_attempts", r.policy.Attempts),
			logger.String("outcome", string(a.Outcome)),
		}
		if err != nil {
			fields = append(fields, logger.Error(err))
		}
		r.log.Warn("fetch attempt failed", fields...)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, attempts, fmt.Errorf("fetch %s: %w", label, ctxErr)
		}
		if n < r.policy.Attempts {
			if err := r.sleep(ctx, r.policy.Pause); err != nil {
				return zero, attempts, fmt.Errorf("fetch %s: %w", label, err)
			}
		}
	}

	last := attempts[len(attempts)-1]
	kind := models.ErrSourceUnavailable
	if last.Outcome == models.OutcomeEmpty {
		kind = models.ErrEmptyResult
	}
	return zero, attempts, &models.SourceError{Source: label, Kind: kind, Attempts: len(attempts), Err: last.Err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
