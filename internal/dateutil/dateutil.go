package dateutil

import "time"

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from a to b.
// The result is positive when b is after a, computed on day boundaries
// so that 23:59 to 00:01 the next day counts as one day.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// At returns the given day at hour:minute, with seconds zeroed.
func At(day time.Time, hour, minute int) time.Time {
	year, month, d := day.Date()
	return time.Date(year, month, d, hour, minute, 0, 0, day.Location())
}

// Tomorrow returns the start of the day after t.
func Tomorrow(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
