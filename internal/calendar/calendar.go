// Package calendar converts instants into the community's calendar units:
// days ("2006-01-02"), ISO weeks ("2006-W01") and month keys (year*100+month).
package calendar

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{loc: loc, now: now}
}

// Now returns the current instant in the local timezone, truncated to seconds
// so it round-trips through every storage driver unchanged.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc).Truncate(time.Second)
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

func (c *Clock) Today() string {
	return DayKey(c.Now())
}

func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

func ParseDay(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day %q: %w", key, err)
	}
	return t, nil
}

// AddDays shifts a day key by n calendar days.
func AddDays(key string, n int) string {
	t, err := time.Parse(dayLayout, key)
	if err != nil {
		return key
	}
	return DayKey(t.AddDate(0, 0, n))
}

// LastDays returns n day keys ending at (and including) today, newest first.
func LastDays(today string, n int) []string {
	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, AddDays(today, -i))
	}
	return days
}

func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekStart returns the Monday of t's ISO week at local midnight.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekDays lists the seven day keys Monday..Sunday of t's ISO week.
func WeekDays(t time.Time) []string {
	start := WeekStart(t)
	days := make([]string, 7)
	for i := range days {
		days[i] = DayKey(start.AddDate(0, 0, i))
	}
	return days
}

// WeekOpen reports whether submissions for the week identified by key are still
// accepted at now, i.e. now has not yet passed that week's Sunday 23:59:59.
func WeekOpen(key string, now time.Time) bool {
	return WeekKey(now) == key
}

func MonthKey(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}
