package domain

import (
	"fmt"
	"time"
)

// DailyExportTimeKey is the dynamic config key holding the batch window
// time-of-day as HH:MM.
const DailyExportTimeKey = "DAILY_EXPORT_TIME"

// DefaultDailyExportTime is used when no dynamic override is stored.
const DefaultDailyExportTime = "18:00"

// ParseDailyTime parses an HH:MM string into hour and minute.
func ParseDailyTime(hhmm string) (hour, minute int, err error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid daily time %q (want HH:MM): %w", hhmm, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// NextDailyRun computes the next occurrence of the HH:MM wall-clock time in
// loc strictly after now. If today's occurrence has already passed, it rolls
// to tomorrow.
func NextDailyRun(now time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseDailyTime(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
