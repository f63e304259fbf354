package filter

import "time"

// WindowEnd is the inclusive upper bound of the rolling window starting at now.
func WindowEnd(now time.Time, daysAhead int) time.Time {
	return now.AddDate(0, 0, daysAhead)
}

// InWindow reports whether t lies in [now, now+daysAhead days], both ends inclusive.
// Callers pass t and now in the same location.
func InWindow(t, now time.Time, daysAhead int) bool {
	return !t.Before(now) && !t.After(WindowEnd(now, daysAhead))
}

// TodayRange returns [midnight, next midnight) of now's calendar day in now's location.
func TodayRange(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// IsToday reports whether t falls on now's calendar day.
func IsToday(t, now time.Time) bool {
	start, end := TodayRange(now)
	return !t.Before(start) && t.Before(end)
}
