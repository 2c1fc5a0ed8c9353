package checkin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/rs/zerolog/log"
)

// Service applies the once-per-day rule in a fixed time zone.
type Service struct {
	repo    Repo
	loc     *time.Location
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

func WithNowFunc(f func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = f
	}
}

func NewService(repo Repo, loc *time.Location, opts ...ServiceOption) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		repo:    repo,
		loc:     loc,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	now := s.nowFunc()
	status := &Status{NextEligibleAt: StartOfNextDay(now, s.loc)}

	rec, err := s.repo.GetByDay(ctx, userID, DayKey(now, s.loc))
	switch {
	case err == nil:
		status.CompletedToday = true
		status.Record = rec
	case errors.Is(err, errors.ErrNotFound):
	default:
		return nil, errors.Wrapf(err, "failed to load today's check-in")
	}
	return status, nil
}

// Submit records today's check-in. A second submission on the same day
// returns ErrAlreadyCheckedIn.
func (s *Service) Submit(ctx context.Context, userID string, p Payload) (*Record, *Reward, error) {
	p, err := ValidatePayload(p)
	if err != nil {
		return nil, nil, err
	}

	now := s.nowFunc().UTC()
	streak := 1
	prev, err := s.repo.GetByDay(ctx, userID, previousDayKey(now, s.loc))
	switch {
	case err == nil:
		streak = prev.Streak + 1
	case errors.Is(err, errors.ErrNotFound):
	default:
		return nil, nil, errors.Wrapf(err, "failed to load previous check-in")
	}

	rec := &Record{
		ID:            uuid.New().String(),
		UserID:        userID,
		Day:           DayKey(now, s.loc),
		PerformedAt:   now,
		Payload:       p,
		PointsAwarded: PointsForStreak(streak),
		Streak:        streak,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			return nil, nil, ErrAlreadyCheckedIn
		}
		return nil, nil, errors.Wrapf(err, "failed to store check-in")
	}

	total, err := s.repo.TotalPoints(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("failed to total points")
		total = rec.PointsAwarded
	}

	log.Info().Str("user", userID).Str("day", rec.Day).Int("streak", streak).Msg("check-in recorded")
	return rec, &Reward{
		PointsAwarded: rec.PointsAwarded,
		Streak:        rec.Streak,
		TotalPoints:   total,
	}, nil
}

// History returns up to limit records, newest first. Out of range limits
// fall back to the default or are capped.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*Record, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return s.repo.List(ctx, userID, limit)
}

// RewardFor rebuilds the reward summary of an existing record.
func (s *Service) RewardFor(ctx context.Context, rec *Record) (*Reward, error) {
	total, err := s.repo.TotalPoints(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	return &Reward{PointsAwarded: rec.PointsAwarded, Streak: rec.Streak, TotalPoints: total}, nil
}
