package server

import (
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// StartScheduler runs Cleanup every CLEANUP_INTERVAL. The caller shuts the
// returned scheduler down on exit.
func (s *Server) StartScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	interval := s.config.GetCleanupInterval()
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.Cleanup),
		gocron.WithName("cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	sched.Start()
	log.Info().Dur("interval", interval).Msg("cleanup scheduler started")
	return sched, nil
}
