// Package biztime centralizes time handling. All persisted and compared
// timestamps are UTC; the business timezone exists only for schedule
// boundaries (when a nightly run "day" starts) and display.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone is used when no business timezone is configured.
const DefaultTimezone = "UTC"

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init sets the business timezone. Call once at startup; empty means UTC.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit sets the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone, initializing to UTC on first use
// if Init was never called.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time in any zone to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// StartOfDayUTC returns business-timezone midnight of t's day, in UTC.
// Used for delta-run watermark boundaries on daily schedules.
func StartOfDayUTC(t time.Time) time.Time {
	b := t.In(Location())
	return time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, Location()).UTC()
}

// EndOfDayUTC returns the last instant of t's business day, in UTC.
func EndOfDayUTC(t time.Time) time.Time {
	b := t.In(Location())
	return time.Date(b.Year(), b.Month(), b.Day(), 23, 59, 59, 999999999, Location()).UTC()
}

// FormatInBizTimezone renders a UTC time in the business timezone for
// operator-facing output.
func FormatInBizTimezone(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}
