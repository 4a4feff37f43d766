package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means every fetch attempt for a batch or series failed.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrEmptyResult means the provider answered but returned no usable rows.
	ErrEmptyResult = errors.New("empty result")
	// ErrMissingAnchor means a batch could not be rescaled against the reference batch.
	ErrMissingAnchor = errors.New("missing anchor")
	// ErrAmbiguousUnit marks a series rescaled by the percent/bps heuristic.
	ErrAmbiguousUnit = errors.New("ambiguous unit")
	// ErrAllSourcesFailed means no configured source produced a column.
	ErrAllSourcesFailed = errors.New("all sources failed")
	// ErrConfig marks invalid run configuration.
	ErrConfig = errors.New("invalid configuration")
)

// SourceError reports a per-source or per-batch failure.
type SourceError struct {
	Source   string
	Kind     error // one of the sentinel errors above
	Attempts int
	Err      error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Source, e.Kind)
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *SourceError) Unwrap() []error {
	out := []error{e.Kind}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// ConfigError wraps a configuration problem so it matches ErrConfig.
func ConfigError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// DiagnosticKind classifies a non-fatal condition recorded during a run.
type DiagnosticKind string

const (
	DiagSourceUnavailable DiagnosticKind = "SourceUnavailable"
	DiagEmptyResult       DiagnosticKind = "EmptyResult"
	DiagMissingAnchor     DiagnosticKind = "MissingAnchor"
	DiagUnscaled          DiagnosticKind = "Unscaled"
	DiagAmbiguousUnit     DiagnosticKind = "AmbiguousUnit"
	DiagAllSourcesFailed  DiagnosticKind = "AllSourcesFailed"
)

// Diagnostic is one entry of the run report.
type Diagnostic struct {
	Kind   DiagnosticKind
	Source string
	Detail string
}

// DiagnosticFor maps a failure error onto its diagnostic kind.
func DiagnosticFor(source string, err error) Diagnostic {
	kind := DiagSourceUnavailable
	switch {
	case errors.Is(err, ErrEmptyResult):
		kind = DiagEmptyResult
	case errors.Is(err, ErrMissingAnchor):
		kind = DiagMissingAnchor
	case errors.Is(err, ErrAmbiguousUnit):
		kind = DiagAmbiguousUnit
	case errors.Is(err, ErrAllSourcesFailed):
		kind = DiagAllSourcesFailed
	}
	return Diagnostic{Kind: kind, Source: source, Detail: err.Error()}
}
