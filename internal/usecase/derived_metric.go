package usecase

import (
	"MarketWatch/internal/domain/models"
	"MarketWatch/pkg/util"
)

// DerivedMetricEngine computes metrics derived from monthly level series.
type DerivedMetricEngine struct{}

func NewDerivedMetricEngine() *DerivedMetricEngine { return &DerivedMetricEngine{} }

// YearOverYear returns (v(m)/v(m-12) - 1) * 100 for every month m where both
// observations exist and v(m-12) != 0. Other months are absent from the
// result, so fewer than 13 consecutive months yield an empty series.
func (e *DerivedMetricEngine) YearOverYear(s *models.Series) *models.Series {
	var out []models.Point
	for _, p := range s.Points() {
		prev, ok := s.At(util.AddMonths(util.MonthEnd(p.Time), -12))
		if !ok || prev == 0 {
			continue
		}
		out = append(out, models.Point{Time: p.Time, Value: (p.Value/prev - 1) * 100})
	}
	res := s.Derive(out)
	res.Unit = models.UnitPercent
	return res
}
