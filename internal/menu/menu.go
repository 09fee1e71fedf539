// Package menu holds the normalized menu model shared by the vendor feeds
// and the calendar reconciler.
package menu

import "time"

// DateLayout is the date-only form used throughout: vendor payload dates,
// calendar event keys, and CLI flags all use it.
const DateLayout = "2006-01-02"

// Record is one day's resolved menu: the date it applies to, the display
// title, and an optional multi-line details block. Title is never empty; a
// day with no resolvable menu simply produces no Record.
type Record struct {
	Date    time.Time
	Title   string
	Details string
}

// DateKey returns the YYYY-MM-DD form used to key calendar lookups.
func (r Record) DateKey() string {
	return r.Date.Format(DateLayout)
}

// IsWeekend reports whether the date falls on a Saturday or Sunday. No menu
// events are ever produced for weekends, regardless of vendor data.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Midnight drops the time-of-day component. Collection and reconciliation
// only ever compare calendar dates.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
