package commands

import (
	"fmt"
	"strings"
	"time"
)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseWhen resolves a due time relative to now. It accepts a positive
// duration ("10m", "+1h30m"), a clock time ("08:30", next occurrence) or an
// absolute timestamp. Past absolute times are returned as-is.
func ParseWhen(raw string, now time.Time) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "time is empty"}
	}

	if d, err := time.ParseDuration(strings.TrimPrefix(value, "+")); err == nil {
		if d <= 0 {
			return time.Time{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("duration must be positive: %s", value)}
		}
		return now.Add(d), nil
	}

	if clock, err := time.ParseInLocation("15:04", value, now.Location()); err == nil {
		at := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at, nil
	}

	for _, layout := range absoluteLayouts {
		if at, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			return at, nil
		}
	}
	return time.Time{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unrecognised time: %s", value)}
}
