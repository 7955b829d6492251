package model

import (
	"time"

	"notekeeper/internal/apperr"
)

const dayLayout = "2006-01-02"

// Day is a calendar day bucket in YYYY-MM-DD form.
type Day string

// DayOf returns the day containing t in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

// Today returns the current local day.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay validates s as a day.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", apperr.Validation("date", "must be formatted as YYYY-MM-DD")
	}
	return Day(s), nil
}

// Start returns midnight of the day in loc.
func (d Day) Start(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(dayLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// End returns midnight of the following day in loc.
func (d Day) End(loc *time.Location) time.Time {
	return d.Start(loc).AddDate(0, 0, 1)
}

// Valid reports whether d parses.
func (d Day) Valid() bool {
	_, err := time.Parse(dayLayout, string(d))
	return err == nil
}

func (d Day) String() string { return string(d) }
