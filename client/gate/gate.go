// Package gate tracks whether the once-a-day check-in has been done.
//
// The server decides what "today" is. The gate only ever becomes Completed or
// Eligible from a server answer; the local clock drives the countdown and,
// when it reaches zero, a fresh query.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/wellness"
	"github.com/rs/zerolog"
)

var (
	// ErrNotEligible is returned by Submit outside the Eligible state.
	ErrNotEligible = errors.New("check-in is not available")
	// ErrDiscarded is returned when Reset was called while a request was in
	// flight. Its result has been dropped.
	ErrDiscarded = errors.New("result discarded after reset")
)

type State int

const (
	StateUnknown State = iota
	StateEligible
	StateCompleted
	StateSubmitting
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateEligible:
		return "eligible"
	case StateCompleted:
		return "completed"
	case StateSubmitting:
		return "submitting"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is a copy of the gate's state at one instant.
type Snapshot struct {
	State State
	// Record is today's check-in when Completed. It can be nil if a duplicate
	// was detected and the follow-up query failed.
	Record *apimodel.Record
	// Err is the failure reason in the Error state, or the last submit error
	// in the Eligible state.
	Err error
	// Countdown is the time left until the next local midnight. Zero unless
	// Completed.
	Countdown time.Duration
	// NextEligibleAt is the server's own day boundary, for display.
	NextEligibleAt time.Time
}

func (s Snapshot) CanSubmit() bool {
	return s.State == StateEligible
}

// API is the subset of wellness.API the gate calls.
type API interface {
	Status(ctx context.Context) (*apimodel.StatusResponse, error)
	Submit(ctx context.Context, payload apimodel.CheckInPayload) (*apimodel.SubmitResponse, error)
}

var _ API = (*wellness.API)(nil)

// SubmitResult describes a submission that left the gate Completed.
type SubmitResult struct {
	Record *apimodel.Record
	Reward apimodel.RewardSummary
	// Reconciled is set when the server already had today's check-in and
	// Record came from a follow-up status query.
	Reconciled bool
}

type Gate struct {
	api      API
	loc      *time.Location
	nowFunc  func() time.Time
	logger   zerolog.Logger
	onReward func(apimodel.Record, apimodel.RewardSummary)

	mu             sync.Mutex
	state          State
	record         *apimodel.Record
	err            error
	anchor         time.Time
	nextEligibleAt time.Time
	generation     uint64
}

type Option func(*Gate)

// WithRewardListener is called after an accepted submission with the reward
// values from the response. They are for display only.
func WithRewardListener(f func(apimodel.Record, apimodel.RewardSummary)) Option {
	return func(g *Gate) {
		g.onReward = f
	}
}

// WithLocation sets the time zone the countdown runs in. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) {
		g.loc = loc
	}
}

func WithNowFunc(f func() time.Time) Option {
	return func(g *Gate) {
		g.nowFunc = f
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(g *Gate) {
		g.logger = l
	}
}

func New(api API, opts ...Option) *Gate {
	g := &Gate{
		api:     api,
		loc:     time.Local,
		nowFunc: time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot returns the current state with the countdown computed now.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// QueryStatus asks the server whether today's check-in is done. While a
// submission is in flight it returns the current state without a request.
// A failed query leaves the gate in the Error state.
func (g *Gate) QueryStatus(ctx context.Context) (Snapshot, error) {
	g.mu.Lock()
	if g.state == StateSubmitting {
		defer g.mu.Unlock()
		return g.snapshotLocked(), nil
	}
	gen := g.generation
	g.mu.Unlock()

	status, err := g.api.Status(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return g.snapshotLocked(), ErrDiscarded
	}
	if g.state == StateSubmitting {
		// The submission's outcome is newer.
		return g.snapshotLocked(), nil
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("check-in status query failed")
		g.state, g.record, g.err = StateError, nil, err
		return g.snapshotLocked(), err
	}
	g.applyStatusLocked(status)
	return g.snapshotLocked(), nil
}

// Submit sends today's check-in. It may only be called while Eligible. A
// duplicate reported by the server is not an error: the gate becomes
// Completed and fetches the existing record. Any other failure returns the
// gate to Eligible with the error attached.
func (g *Gate) Submit(ctx context.Context, payload apimodel.CheckInPayload) (SubmitResult, error) {
	g.mu.Lock()
	if g.state != StateEligible {
		state := g.state
		g.mu.Unlock()
		return SubmitResult{}, fmt.Errorf("%w: state is %s", ErrNotEligible, state)
	}
	g.state, g.err = StateSubmitting, nil
	gen := g.generation
	g.mu.Unlock()

	resp, err := g.api.Submit(ctx, payload)

	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		return SubmitResult{}, ErrDiscarded
	}

	switch {
	case err == nil:
		record := resp.Record
		g.state, g.record, g.err = StateCompleted, &record, nil
		g.anchor = g.anchorFor(&record)
		g.nextEligibleAt = time.Time{}
		g.mu.Unlock()

		g.logger.Info().Str("record", record.ID).Int("streak", resp.RewardSummary.Streak).Msg("check-in accepted")
		if g.onReward != nil {
			g.onReward(record, resp.RewardSummary)
		}
		out := record
		return SubmitResult{Record: &out, Reward: resp.RewardSummary}, nil

	case errors.Is(err, wellness.ErrDuplicateAction):
		g.state, g.record, g.err = StateCompleted, nil, nil
		g.anchor = g.nowFunc()
		g.mu.Unlock()

		g.logger.Info().Msg("check-in already recorded, reconciling")
		return g.reconcile(ctx, gen)

	default:
		g.state, g.err = StateEligible, err
		g.mu.Unlock()
		g.logger.Warn().Err(err).Msg("check-in submission failed")
		return SubmitResult{}, err
	}
}

// reconcile replaces the assumed completion with the server's record. If the
// query fails the gate stays Completed without a record.
func (g *Gate) reconcile(ctx context.Context, gen uint64) (SubmitResult, error) {
	status, err := g.api.Status(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return SubmitResult{}, ErrDiscarded
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("reconciliation query failed")
		return SubmitResult{Reconciled: true}, nil
	}

	g.applyStatusLocked(status)
	result := SubmitResult{Reconciled: true}
	if g.record != nil {
		record := *g.record
		result.Record, result.Reward = &record, record.RewardSummary
	}
	return result, nil
}

// TickCountdown recomputes the countdown. When a Completed countdown reaches
// zero the gate drops to Unknown and queries the server once; it never
// becomes Eligible on its own.
func (g *Gate) TickCountdown(ctx context.Context) (Snapshot, error) {
	g.mu.Lock()
	if g.state != StateCompleted || Countdown(g.nowFunc(), g.anchor, g.loc) > 0 {
		defer g.mu.Unlock()
		return g.snapshotLocked(), nil
	}
	g.state, g.record, g.err = StateUnknown, nil, nil
	g.mu.Unlock()

	g.logger.Debug().Msg("countdown reached zero, re-querying")
	return g.QueryStatus(ctx)
}

// Reset returns the gate to Unknown. Results of requests already in flight
// are discarded.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generation++
	g.state, g.record, g.err = StateUnknown, nil, nil
	g.anchor, g.nextEligibleAt = time.Time{}, time.Time{}
}

func (g *Gate) applyStatusLocked(status *apimodel.StatusResponse) {
	g.err = nil
	g.nextEligibleAt = status.NextEligibleAt
	if !status.CompletedToday {
		g.state, g.record = StateEligible, nil
		return
	}

	// The server's answer stands even if the record looks like it belongs
	// to another local day.
	g.state, g.record = StateCompleted, status.Record
	g.anchor = g.anchorFor(status.Record)
}

// anchorFor picks the instant whose next local midnight ends the countdown:
// the record time when it falls on today's local date, else now.
func (g *Gate) anchorFor(record *apimodel.Record) time.Time {
	now := g.nowFunc()
	if record != nil && !record.PerformedAt.IsZero() && sameDay(record.PerformedAt, now, g.loc) {
		return record.PerformedAt
	}
	return now
}

func (g *Gate) snapshotLocked() Snapshot {
	s := Snapshot{
		State:          g.state,
		Err:            g.err,
		NextEligibleAt: g.nextEligibleAt,
	}
	if g.record != nil {
		record := *g.record
		s.Record = &record
	}
	if g.state == StateCompleted {
		s.Countdown = Countdown(g.nowFunc(), g.anchor, g.loc)
	}
	return s
}
