package util

import (
    "strconv"
    "time"
)

// ParseTime tries YYYY-MM-DD, RFC3339, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.DateOnly, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0).UTC(), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns midnight UTC of the first day of t's month.
func MonthStart(t time.Time) time.Time {
    y, m, _ := t.Date()
    return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns midnight UTC of the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
    y, m, _ := t.Date()
    return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts a month-end timestamp by n months and stays on month-end.
func AddMonths(monthEnd time.Time, n int) time.Time {
    y, m, _ := monthEnd.Date()
    return time.Date(y, m+time.Month(n)+1, 0, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as ISO-8601 YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(time.DateOnly) }
