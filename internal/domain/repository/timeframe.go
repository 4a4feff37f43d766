package repository

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Timeframe is a comparison-provider timeframe descriptor such as
// "today 12-m", "now 7-d" or an explicit "2024-01-01 2024-12-31" range.
type Timeframe string

const (
	TFToday12M Timeframe = "today 12-m"
	TFToday6M  Timeframe = "today 6-m"
	TFToday3M  Timeframe = "today 3-m"
	TFNow7D    Timeframe = "now 7-d"
	TFToday5Y  Timeframe = "today 5-y"
)

var relativeTF = regexp.MustCompile(`^(today \d+-[my]|now \d+-[dH]|all)$`)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	s := strings.TrimSpace(string(tf))
	if relativeTF.MatchString(s) {
		return true
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return false
	}
	from, err1 := time.Parse(time.DateOnly, parts[0])
	to, err2 := time.Parse(time.DateOnly, parts[1])
	return err1 == nil && err2 == nil && !to.Before(from)
}

// DefaultTimeframes returns the fallback order used when none is configured
// and no explicit window is available.
func DefaultTimeframes() []Timeframe {
	return []Timeframe{TFToday6M, TFToday12M, TFToday3M, TFNow7D}
}

// RangeTimeframe builds an explicit closed-range descriptor.
func RangeTimeframe(from, to time.Time) Timeframe {
	return Timeframe(fmt.Sprintf("%s %s", from.Format(time.DateOnly), to.Format(time.DateOnly)))
}

// NormalizeTimeframes validates raw descriptors; when raw is empty the
// explicit window range is used.
func NormalizeTimeframes(raw []string, from, to time.Time) ([]Timeframe, error) {
	if len(raw) == 0 {
		return []Timeframe{RangeTimeframe(from, to)}, nil
	}
	out := make([]Timeframe, 0, len(raw))
	for _, r := range raw {
		tf := Timeframe(strings.TrimSpace(r))
		if !IsValidTimeframe(tf) {
			return nil, fmt.Errorf("unsupported timeframe %q", r)
		}
		out = append(out, tf)
	}
	return out, nil
}
