package usecase

import (
	"sort"
	"time"

	"MarketWatch/internal/domain/models"
	"MarketWatch/pkg/util"
)

// TemporalAligner resamples series onto month-end buckets and aligns them on
// the union of their monthly indices.
type TemporalAligner struct{}

func NewTemporalAligner() *TemporalAligner { return &TemporalAligner{} }

// Resample buckets s by calendar month using agg; each bucket is stamped
// with its month-end date.
func (a *TemporalAligner) Resample(s *models.Series, agg models.Aggregation) *models.Series {
	if s.Empty() {
		out := s.Derive(nil)
		out.Frequency = models.FrequencyMonthly
		return out
	}

	var (
		out   []models.Point
		cur   time.Time
		sum   float64
		count int
		last  float64
	)
	flush := func() {
		if count == 0 {
			return
		}
		v := last
		if agg == models.AggregateMean {
			v = sum / float64(count)
		}
		out = append(out, models.Point{Time: cur, Value: v})
	}
	for _, p := range s.Points() {
		m := util.MonthEnd(p.Time)
		if count > 0 && !m.Equal(cur) {
			flush()
			sum, count = 0, 0
		}
		cur = m
		sum += p.Value
		last = p.Value
		count++
	}
	flush()

	res := s.Derive(out)
	res.Frequency = models.FrequencyMonthly
	return res
}

// AlignedColumn is one column on the shared index; every cell is populated.
type AlignedColumn struct {
	Key    string
	Values []float64
}

// Aligned is the output of Align.
type Aligned struct {
	Index   []time.Time
	Columns []AlignedColumn
}

// Align puts monthly series on the union of their indices. Missing cells are
// forward filled first, then backward filled; the backward pass only covers
// leading gaps before a late-starting series' first observation and is a
// display continuity approximation. Empty series are left out entirely.
func (a *TemporalAligner) Align(series []*models.Series) *Aligned {
	set := make(map[time.Time]struct{})
	for _, s := range series {
		for _, t := range s.Times() {
			set[t] = struct{}{}
		}
	}
	index := make([]time.Time, 0, len(set))
	for t := range set {
		index = append(index, t)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	out := &Aligned{Index: index}
	for _, s := range series {
		if s.Empty() {
			continue
		}
		vals := make([]float64, len(index))
		present := make([]bool, len(index))
		for i, t := range index {
			vals[i], present[i] = s.At(t)
		}
		fillForward(vals, present)
		fillBackward(vals, present)
		out.Columns = append(out.Columns, AlignedColumn{Key: s.Key, Values: vals})
	}
	return out
}

func fillForward(vals []float64, present []bool) {
	for i := 1; i < len(vals); i++ {
		if !present[i] && present[i-1] {
			vals[i], present[i] = vals[i-1], true
		}
	}
}

func fillBackward(vals []float64, present []bool) {
	for i := len(vals) - 2; i >= 0; i-- {
		if !present[i] && present[i+1] {
			vals[i], present[i] = vals[i+1], true
		}
	}
}
