package usecase

import (
	"fmt"
	"math"
	"time"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	"MarketWatch/pkg/logger"
)

// AnchorRescaler reconciles the independent 0-100 normalisation of each
// comparison batch. Every batch is scaled pairwise against batch 1, never
// chained through intermediate batches.
type AnchorRescaler struct {
	log     *logger.Logger
	metrics drepo.Metrics
}

func NewAnchorRescaler(metrics drepo.Metrics, log *logger.Logger) *AnchorRescaler {
	return &AnchorRescaler{log: log.With("rescaler"), metrics: metrics}
}

// RescaleResult holds the reconciled columns in requested key order.
type RescaleResult struct {
	Series      []*models.Series
	Scales      []models.BatchScale
	Diagnostics []models.Diagnostic
}

// Rescale merges resolved batches into one set of comparable series. order is
// the originally requested key order; failed batches contribute nothing.
func (a *AnchorRescaler) Rescale(source string, order []string, batches []*models.Batch) *RescaleResult {
	res := &RescaleResult{}
	cols := make(map[string]*models.Series, len(order))
	if len(batches) == 0 {
		return res
	}

	ref := batches[0]
	var refAnchor *models.Series
	if ref.Resolved() && ref.Anchor != "" {
		refAnchor, _ = ref.Series(ref.Anchor)
	}

	for _, b := range batches {
		bs := models.BatchScale{Source: source, Number: b.Number, Keys: append([]string(nil), b.Keys...), Scale: 1}
		if !b.Resolved() {
			bs.Flag = models.RescaleFailed
			res.Scales = append(res.Scales, bs)
			continue
		}

		if b.Number == 1 {
			bs.Flag = models.RescaleReference
			for _, k := range b.Keys {
				if s, ok := b.Series(k); ok {
					cols[k] = s
				}
			}
			res.Scales = append(res.Scales, bs)
			continue
		}

		curAnchor, ok := b.Series(b.Anchor)
		if !ok || refAnchor == nil {
			bs.Flag = models.RescaleReducedConfidence
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Kind:   models.DiagMissingAnchor,
				Source: source,
				Detail: fmt.Sprintf("batch %d: anchor %q unavailable, columns concatenated unscaled", b.Number, b.Anchor),
			})
			a.log.Warn("anchor missing, batch not rescaled", logger.String("source", source), logger.Int("batch", b.Number))
		} else {
			scale, overlap, ok := ScaleFactor(refAnchor, curAnchor)
			bs.Scale, bs.Overlap = scale, overlap
			if ok {
				bs.Flag = models.RescaleScaled
			} else {
				bs.Flag = models.RescaleUnscaled
				res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
					Kind:   models.DiagUnscaled,
					Source: source,
					Detail: fmt.Sprintf("batch %d: anchor divisor is zero, scale forced to 1", b.Number),
				})
				a.log.Warn("zero anchor divisor, batch unscaled", logger.String("source", source), logger.Int("batch", b.Number))
			}
		}

		for _, k := range b.NewKeys() {
			if s, ok := b.Series(k); ok {
				cols[k] = s.Scale(bs.Scale)
			}
		}
		if a.metrics != nil {
			a.metrics.RecordRescaleFactor(source, b.Number, bs.Scale)
		}
		a.log.Debug("batch rescaled",
			logger.String("source", source),
			logger.Int("batch", b.Number),
			logger.Float64("scale", bs.Scale),
			logger.Int("overlap", bs.Overlap),
			logger.String("flag", string(bs.Flag)),
		)
		res.Scales = append(res.Scales, bs)
	}

	for _, k := range order {
		if s, ok := cols[k]; ok {
			res.Series = append(res.Series, s)
		}
	}
	return res
}

// ScaleFactor returns mean(ref)/mean(cur) over the shared timestamps, or
// max(ref)/max(cur) when they share none, plus the overlap size. ok is false
// when the divisor is zero and the factor was forced to 1.
func ScaleFactor(ref, cur *models.Series) (scale float64, overlap int, ok bool) {
	var refSum, curSum float64
	shared := Intersection(ref, cur)
	for _, t := range shared {
		rv, _ := ref.At(t)
		cv, _ := cur.At(t)
		refSum += rv
		curSum += cv
	}
	overlap = len(shared)

	var num, den float64
	if overlap > 0 {
		num, den = refSum/float64(overlap), curSum/float64(overlap)
	} else {
		num, den = ref.Max(), cur.Max()
	}
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return 1, overlap, false
	}
	return num / den, overlap, true
}

// Intersection returns the timestamps present in both series.
func Intersection(a, b *models.Series) []time.Time {
	var out []time.Time
	for _, t := range a.Times() {
		if _, ok := b.At(t); ok {
			out = append(out, t)
		}
	}
	return out
}
