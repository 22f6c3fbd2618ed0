// Package tz pins the reference timezone used for every deadline
// comparison in the system. Tournament deadlines are stored as naive
// timestamps, so they must be interpreted in this zone before any
// "is it past" decision.
package tz

import "time"

// Eastern is the America/New_York location (EST/EDT with automatic DST).
var Eastern *time.Location

func init() {
	var err error
	Eastern, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic("tz: load America/New_York: " + err.Error())
	}
}

// Normalize interprets t in the Eastern reference zone. Timestamps scanned
// from a `timestamp without time zone` column arrive in UTC with their wall
// clock intact; those are rebuilt as the same wall clock in Eastern.
// Timestamps that already carry a real offset are just converted.
func Normalize(t time.Time) time.Time {
	if t.Location() == time.UTC {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), Eastern)
	}
	return t.In(Eastern)
}

// Now returns the current time in the Eastern reference zone.
func Now() time.Time {
	return time.Now().In(Eastern)
}

// HoursSince reports how many whole hours have elapsed between past and now.
func HoursSince(now, past time.Time) int {
	return int(now.Sub(past).Hours())
}

// HoursUntil reports how many whole hours remain between now and future.
func HoursUntil(now, future time.Time) int {
	return int(future.Sub(now).Hours())
}
