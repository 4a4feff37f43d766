package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frequency is the native sampling frequency of a series.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyIrregular Frequency = "irregular"
)

// Unit tags what the values of a series measure.
type Unit string

const (
	UnitIndex       Unit = "index-0-100"
	UnitPercent     Unit = "percent"
	UnitBasisPoints Unit = "basis-points"
	UnitLevel       Unit = "level"
	UnitUnknown     Unit = "unknown"
)

// Aggregation is the downsampling policy used when a series is resampled
// onto the monthly grid.
type Aggregation string

const (
	AggregateLast Aggregation = "last" // stock quantities
	AggregateMean Aggregation = "mean" // flow / continuous quantities
)

// Point is a single observation.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is an ordered, duplicate-free sequence of observations for one key.
// A missing observation is simply not present; values are never NaN.
type Series struct {
	Key       string
	Frequency Frequency
	Unit      Unit
	points    []Point
}

// NewSeries sorts points by time and rejects duplicate timestamps and NaN values.
func NewSeries(key string, freq Frequency, unit Unit, points []Point) (*Series, error) {
	ps := make([]Point, len(points))
	copy(ps, points)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Time.Before(ps[j].Time) })
	for i, p := range ps {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("series %s: non-finite value at %s", key, p.Time.Format(time.DateOnly))
		}
		if i > 0 && !ps[i-1].Time.Before(p.Time) {
			return nil, fmt.Errorf("series %s: duplicate timestamp %s", key, p.Time.Format(time.DateOnly))
		}
	}
	return &Series{Key: key, Frequency: freq, Unit: unit, points: ps}, nil
}

// MustSeries is NewSeries for literals known to be valid.
func MustSeries(key string, freq Frequency, unit Unit, points []Point) *Series {
	s, err := NewSeries(key, freq, unit, points)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// Empty reports whether the series has no observations.
func (s *Series) Empty() bool { return s.Len() == 0 }

// Points returns a copy of the observations.
func (s *Series) Points() []Point {
	out := make([]Point, s.Len())
	if s != nil {
		copy(out, s.points)
	}
	return out
}

// Times returns the observation timestamps in order.
func (s *Series) Times() []time.Time {
	out := make([]time.Time, s.Len())
	for i := range out {
		out[i] = s.points[i].Time
	}
	return out
}

// Values returns the observation values in order.
func (s *Series) Values() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.points[i].Value
	}
	return out
}

// At returns the value observed at t, and whether one exists.
func (s *Series) At(t time.Time) (float64, bool) {
	if s == nil {
		return 0, false
	}
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Time.Before(t) })
	if i < len(s.points) && s.points[i].Time.Equal(t) {
		return s.points[i].Value, true
	}
	return 0, false
}

// Derive returns a new series with the same key and tags but different
// observations. Points must already be ordered; the receiver is not modified.
func (s *Series) Derive(points []Point) *Series {
	return &Series{Key: s.Key, Frequency: s.Frequency, Unit: s.Unit, points: points}
}

// WithKey returns a copy of s under a different key.
func (s *Series) WithKey(key string) *Series {
	out := s.Derive(s.Points())
	out.Key = key
	return out
}

// WithUnit returns a copy of s with a different unit tag.
func (s *Series) WithUnit(u Unit) *Series {
	out := s.Derive(s.Points())
	out.Unit = u
	return out
}

// Scale multiplies every value by f.
func (s *Series) Scale(f float64) *Series {
	ps := s.Points()
	for i := range ps {
		ps[i].Value *= f
	}
	return s.Derive(ps)
}

// Window keeps only observations with from <= t <= to.
func (s *Series) Window(from, to time.Time) *Series {
	ps := make([]Point, 0, s.Len())
	for _, p := range s.points {
		if p.Time.Before(from) || p.Time.After(to) {
			continue
		}
		ps = append(ps, p)
	}
	return s.Derive(ps)
}

// Mean returns the arithmetic mean, or NaN for an empty series.
func (s *Series) Mean() float64 {
	if s.Empty() {
		return math.NaN()
	}
	sum := 0.0
	for _, p := range s.points {
		sum += p.Value
	}
	return sum / float64(len(s.points))
}

// Max returns the largest value, or NaN for an empty series.
func (s *Series) Max() float64 {
	if s.Empty() {
		return math.NaN()
	}
	max := s.points[0].Value
	for _, p := range s.points[1:] {
		if p.Value > max {
			max = p.Value
		}
	}
	return max
}

// Median returns the median value, or NaN for an empty series.
func (s *Series) Median() float64 {
	if s.Empty() {
		return math.NaN()
	}
	sorted := s.Values()
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// InferFrequency classifies the median spacing between observations.
func InferFrequency(times []time.Time) Frequency {
	if len(times) < 2 {
		return FrequencyIrregular
	}
	gaps := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, times[i].Sub(times[i-1]).Hours()/24)
	}
	sort.Float64s(gaps)
	med := gaps[len(gaps)/2]
	switch {
	case med <= 1.5:
		return FrequencyDaily
	case med >= 27 && med <= 32:
		return FrequencyMonthly
	default:
		return FrequencyIrregular
	}
}
