package gate

import "time"

// NextMidnight returns the start of the calendar day after t, in loc.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

// Countdown is the time from now until the local midnight following anchor,
// never negative.
func Countdown(now, anchor time.Time, loc *time.Location) time.Duration {
	remaining := NextMidnight(anchor, loc).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
