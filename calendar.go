package main

import "time"

const dateLayout = "2006-01-02"

// civilDate returns the calendar date of t in loc, as midnight UTC.
// Dates produced this way compare and subtract without DST artifacts.
func civilDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func formatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// daysBetween counts whole days from a to b; negative when b is before a.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
