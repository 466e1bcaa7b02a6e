package util

import (
    "strconv"
    "time"
)

// DateLayout is the canonical day format used across the service.
const DateLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
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

// ParseDay parses a calendar day. Accepts the plain day layout first,
// then falls back to ParseTime and truncates to UTC midnight.
func ParseDay(s string) (time.Time, bool) {
    if t, err := time.Parse(DateLayout, s); err == nil {
        return t, true
    }
    if t, ok := ParseTime(s); ok {
        return Day(t), true
    }
    return time.Time{}, false
}

// Day truncates a time to UTC midnight.
func Day(t time.Time) time.Time {
    u := t.UTC()
    return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
