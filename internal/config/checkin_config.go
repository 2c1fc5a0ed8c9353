package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

type CheckInConfig interface {
	GetCheckInLocation() *time.Location
	GetCleanupInterval() time.Duration
}

type CheckIn struct{}

var _ CheckInConfig = CheckIn{}

// GetCheckInLocation is the time zone whose calendar day bounds a check-in.
func (CheckIn) GetCheckInLocation() *time.Location {
	name := GetEnv("CHECKIN_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("timezone", name).Msg("unknown time zone, using UTC")
		return time.UTC
	}
	return loc
}

func (CheckIn) GetCleanupInterval() time.Duration {
	return getDurationEnv("CLEANUP_INTERVAL", time.Hour)
}
