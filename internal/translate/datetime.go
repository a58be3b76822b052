package translate

import (
	"fmt"
	"time"
)

// Bounds used for open-ended datetime intervals.
var (
	MinTime = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxTime = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// FormatSTACTime formats a time as RFC 3339 UTC with millisecond precision.
func FormatSTACTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ParseSTACTime parses an item datetime property.
func ParseSTACTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, fmt.Errorf("%w: datetime must be a string, got %T", ErrInvalidDateTime, v)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDateTime, err)
	}
	return t.UTC(), nil
}

// QueryBounds turns a STAC datetime filter, which is inclusive at both ends,
// into the half-open [start, end) interval catalog queries use. Open ends
// become MinTime and MaxTime.
func QueryBounds(start, end *time.Time) (time.Time, time.Time, error) {
	s, e := MinTime, MaxTime
	if start != nil {
		s = start.UTC()
	}
	if end != nil {
		e = end.UTC().Add(time.Millisecond)
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: empty interval", ErrInvalidDateTime)
	}
	return s, e, nil
}
