package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"MarketWatch/internal/domain/models"
	"MarketWatch/pkg/logger"
)

func TestNormalizeThreshold(t *testing.T) {
	n := NewUnitNormalizer(DefaultUnitThreshold, logger.Nop())

	cases := []struct {
		name      string
		values    []float64
		want      []float64
		converted bool
	}{
		{"percent", []float64{4, 5, 6}, []float64{400, 500, 600}, true},
		{"negative percent", []float64{-5, -5, -5}, []float64{-500, -500, -500}, true},
		{"basis points", []float64{40, 50, 60}, []float64{40, 50, 60}, false},
		{"exactly threshold", []float64{20, 20, 20}, []float64{20, 20, 20}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pts := make([]models.Point, len(tc.values))
			for i, v := range tc.values {
				pts[i] = pt(day(2024, 1, i+1), v)
			}
			out, converted := n.Normalize(series("hy", pts...))
			assert.Equal(t, tc.converted, converted)
			assert.InDeltaSlice(t, tc.want, out.Values(), 1e-9)
			assert.Equal(t, models.UnitBasisPoints, out.Unit)
		})
	}
}

func TestNormalizeDiagnostic(t *testing.T) {
	n := NewUnitNormalizer(0, logger.Nop())
	d := n.Diagnostic("hy", series("hy", pt(day(2024, 1, 1), 3.5)))
	assert.Equal(t, models.DiagAmbiguousUnit, d.Kind)
	assert.Equal(t, "hy", d.Source)
	assert.Contains(t, d.Detail, "ambiguous unit")
}
