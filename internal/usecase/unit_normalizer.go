package usecase

import (
	"fmt"
	"math"

	"MarketWatch/internal/domain/models"
	"MarketWatch/pkg/logger"
)

// DefaultUnitThreshold is the median below which a spread is read as percent.
const DefaultUnitThreshold = 20.0

// UnitNormalizer resolves the percent vs basis-points ambiguity of spread-like
// series from their magnitude.
type UnitNormalizer struct {
	threshold float64
	log       *logger.Logger
}

// NewUnitNormalizer creates a normalizer; a non-positive threshold selects the default.
func NewUnitNormalizer(threshold float64, log *logger.Logger) *UnitNormalizer {
	if threshold <= 0 {
		threshold = DefaultUnitThreshold
	}
	return &UnitNormalizer{threshold: threshold, log: log.With("normalizer")}
}

// Normalize returns s expressed in basis points. When |median| < threshold
// the series is taken to be in percent and multiplied by 100; otherwise the
// values are kept. converted reports which branch was taken.
func (n *UnitNormalizer) Normalize(s *models.Series) (out *models.Series, converted bool) {
	if s.Empty() {
		return s, false
	}
	med := s.Median()
	if math.Abs(med) < n.threshold {
		n.log.Info("percent-scaled series converted to basis points",
			logger.String("series", s.Key),
			logger.Float64("median", med),
			logger.Float64("threshold", n.threshold),
		)
		return s.Scale(100).WithUnit(models.UnitBasisPoints), true
	}
	return s.WithUnit(models.UnitBasisPoints), false
}

// Diagnostic describes a conversion for the run report.
func (n *UnitNormalizer) Diagnostic(source string, s *models.Series) models.Diagnostic {
	return models.Diagnostic{
		Kind:   models.DiagAmbiguousUnit,
		Source: source,
		Detail: fmt.Sprintf("%v: median %.4g below %.4g, values multiplied by 100", models.ErrAmbiguousUnit, s.Median(), n.threshold),
	}
}
