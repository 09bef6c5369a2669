package schedule

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for calendar dates throughout the engine.
const DateFormat = "2006-01-02"

// Calendar answers date questions in the clinic's local timezone.
// "Business day" means Monday through Friday; tomorrow and yesterday are
// relative to the clinic-local current date, not UTC.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar loads the named timezone. now overrides the clock for tests;
// pass nil for the system clock.
func NewCalendar(tz string, now func() time.Time) (*Calendar, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("schedule: load timezone %q: %w", tz, err)
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}, nil
}

// Location returns the clinic's timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Now returns the current clinic-local time.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the clinic-local current date.
func (c *Calendar) Today() string {
	return c.Now().Format(DateFormat)
}

// Tomorrow returns the clinic-local date one day ahead.
func (c *Calendar) Tomorrow() string {
	return c.Now().AddDate(0, 0, 1).Format(DateFormat)
}

// Yesterday returns the clinic-local date one day back.
func (c *Calendar) Yesterday() string {
	return c.Now().AddDate(0, 0, -1).Format(DateFormat)
}

// NextBusinessDays returns the next n weekdays starting from tomorrow,
// skipping Saturdays and Sundays.
func (c *Calendar) NextBusinessDays(n int) []string {
	days := make([]string, 0, n)
	d := c.Now().AddDate(0, 0, 1)
	for len(days) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d.Format(DateFormat))
		}
		d = d.AddDate(0, 0, 1)
	}
	return days
}
