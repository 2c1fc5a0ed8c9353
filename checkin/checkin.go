// Package checkin holds the server side of the daily wellness check-in: one
// record per user per calendar day, with a streak and points computed when
// the record is created.
package checkin

import (
	"time"

	"github.com/jrsteele09/go-checkin/internal/errors"
)

// DayLayout formats the calendar day a record belongs to.
const DayLayout = "2006-01-02"

const (
	MinMood           = 1
	MaxMood           = 5
	MaxFeedbackLength = 500

	basePoints     = 10
	streakBonus    = 2
	maxBonusStreak = 5

	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 100
)

// ErrAlreadyCheckedIn is returned by Repo.Create when the user already has a
// record for that day.
var ErrAlreadyCheckedIn = errors.ErrAlreadyCheckedIn

type Payload struct {
	Mood     int
	Feedback string
}

type Record struct {
	ID            string
	UserID        string
	Day           string    // calendar day in the server's check-in time zone
	PerformedAt   time.Time // UTC
	Payload       Payload
	PointsAwarded int
	Streak        int
}

type Reward struct {
	PointsAwarded int
	Streak        int
	TotalPoints   int
}

// Status answers whether the user has checked in for the current day.
type Status struct {
	CompletedToday bool
	NextEligibleAt time.Time
	Record         *Record
}

func (s Status) CanPerform() bool {
	return !s.CompletedToday
}

// DayKey returns the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// StartOfNextDay returns midnight following t in loc.
func StartOfNextDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

func previousDayKey(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d-1, 12, 0, 0, 0, loc).Format(DayLayout)
}

// PointsForStreak is 10 points plus 2 for each consecutive day before this
// one, capped at five days of bonus.
func PointsForStreak(streak int) int {
	bonusDays := min(max(streak-1, 0), maxBonusStreak)
	return basePoints + streakBonus*bonusDays
}
