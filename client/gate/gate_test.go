package gate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/gate"
	"github.com/jrsteele09/go-checkin/client/pipeline"
	"github.com/jrsteele09/go-checkin/client/wellness"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu          sync.Mutex
	status      *apimodel.StatusResponse
	statusErr   error
	statusCalls int
	submitResp  *apimodel.SubmitResponse
	submitErr   error
	submitCalls int
	release     chan struct{} // when set, Submit blocks until closed
}

func (f *fakeAPI) Status(context.Context) (*apimodel.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	s := *f.status
	return &s, nil
}

func (f *fakeAPI) Submit(_ context.Context, payload apimodel.CheckInPayload) (*apimodel.SubmitResponse, error) {
	f.mu.Lock()
	f.submitCalls++
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	resp := *f.submitResp
	resp.Record.Payload = payload
	return &resp, nil
}

func (f *fakeAPI) calls() (status, submit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls, f.submitCalls
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type gateFixture struct {
	api   *fakeAPI
	clock *clock
	gate  *gate.Gate
	loc   *time.Location

	rewards []apimodel.RewardSummary
}

func newGateFixture(t *testing.T, now time.Time) *gateFixture {
	t.Helper()
	f := &gateFixture{
		api:   &fakeAPI{status: &apimodel.StatusResponse{CanPerform: true}},
		clock: &clock{now: now},
		loc:   now.Location(),
	}
	f.gate = gate.New(f.api,
		gate.WithLocation(f.loc),
		gate.WithNowFunc(f.clock.Now),
		gate.WithRewardListener(func(_ apimodel.Record, r apimodel.RewardSummary) {
			f.rewards = append(f.rewards, r)
		}),
	)
	return f
}

func completedStatus(performedAt time.Time) *apimodel.StatusResponse {
	return &apimodel.StatusResponse{
		CompletedToday: true,
		Record: &apimodel.Record{
			ID:            "existing",
			PerformedAt:   performedAt,
			RewardSummary: apimodel.RewardSummary{PointsAwarded: 12, Streak: 2, TotalPoints: 22},
		},
	}
}

func accepted(performedAt time.Time) *apimodel.SubmitResponse {
	reward := apimodel.RewardSummary{PointsAwarded: 10, Streak: 1, TotalPoints: 10}
	return &apimodel.SubmitResponse{
		Record:        apimodel.Record{ID: "new", PerformedAt: performedAt, RewardSummary: reward},
		RewardSummary: reward,
	}
}

func conflict() error {
	return fmt.Errorf("%w: %w", wellness.ErrDuplicateAction, pipeline.NewHTTPError(409, []byte(`{"message":"already checked in today"}`)))
}

func TestCountdown(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name   string
		now    time.Time
		anchor time.Time
		loc    *time.Location
		want   time.Duration
	}{
		{"evening", time.Date(2026, 5, 1, 22, 30, 0, 0, time.UTC), time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC), time.UTC, 90 * time.Minute},
		{"just after midnight", time.Date(2026, 5, 1, 0, 0, 1, 0, time.UTC), time.Date(2026, 5, 1, 0, 0, 1, 0, time.UTC), time.UTC, 24*time.Hour - time.Second},
		{"clamped at zero", time.Date(2026, 5, 2, 0, 5, 0, 0, time.UTC), time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), time.UTC, 0},
		{"exactly midnight", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), time.UTC, 0},
		{"short DST day", time.Date(2026, 3, 8, 0, 0, 0, 0, ny), time.Date(2026, 3, 8, 0, 0, 0, 0, ny), ny, 23 * time.Hour},
		{"anchor in other zone", time.Date(2026, 5, 1, 23, 0, 0, 0, ny), time.Date(2026, 5, 2, 3, 0, 0, 0, time.UTC), ny, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, gate.Countdown(tt.now, tt.anchor, tt.loc))
		})
	}
}

func TestNextMidnight(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC is already the next morning in Tokyo.
	got := gate.NextMidnight(time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC), tokyo)
	require.True(t, got.Equal(time.Date(2027, 1, 2, 0, 0, 0, 0, tokyo)))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "eligible", gate.StateEligible.String())
	require.Equal(t, "submitting", gate.StateSubmitting.String())
	require.Equal(t, "State(42)", gate.State(42).String())
}

func TestQueryStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	t.Run("starts unknown", func(t *testing.T) {
		f := newGateFixture(t, now)
		require.Equal(t, gate.StateUnknown, f.gate.Snapshot().State)
		require.False(t, f.gate.Snapshot().CanSubmit())
	})

	t.Run("eligible", func(t *testing.T) {
		f := newGateFixture(t, now)
		snap, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateEligible, snap.State)
		require.True(t, snap.CanSubmit())
		require.Zero(t, snap.Countdown)
	})

	t.Run("completed", func(t *testing.T) {
		f := newGateFixture(t, now)
		f.api.status = completedStatus(now.Add(-2 * time.Hour))

		snap, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateCompleted, snap.State)
		require.Equal(t, "existing", snap.Record.ID)
		require.Equal(t, 6*time.Hour, snap.Countdown)
	})

	t.Run("failure is an error state, not eligible", func(t *testing.T) {
		f := newGateFixture(t, now)
		boom := &pipeline.NetworkError{Method: "GET", URL: "x", Err: errors.New("connection refused")}
		f.api.statusErr = boom

		snap, err := f.gate.QueryStatus(context.Background())
		require.ErrorIs(t, err, boom)
		require.Equal(t, gate.StateError, snap.State)
		require.ErrorIs(t, snap.Err, boom)
		require.False(t, snap.CanSubmit())

		_, err = f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 3})
		require.ErrorIs(t, err, gate.ErrNotEligible)
	})

	t.Run("server wins over local date arithmetic", func(t *testing.T) {
		f := newGateFixture(t, now)
		// Record from yesterday by the local clock, but the server says done.
		f.api.status = completedStatus(now.Add(-20 * time.Hour))

		snap, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateCompleted, snap.State)
		require.Equal(t, 6*time.Hour, snap.Countdown, "countdown runs from now, not from the stale record")
	})
}

func TestSubmit(t *testing.T) {
	now := time.Date(2026, 5, 1, 21, 0, 0, 0, time.UTC)

	t.Run("accepted", func(t *testing.T) {
		f := newGateFixture(t, now)
		f.api.submitResp = accepted(now)
		_, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)

		res, err := f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 4})
		require.NoError(t, err)
		require.False(t, res.Reconciled)
		require.Equal(t, "new", res.Record.ID)
		require.Equal(t, 4, res.Record.Payload.Mood)
		require.Equal(t, 10, res.Reward.PointsAwarded)

		snap := f.gate.Snapshot()
		require.Equal(t, gate.StateCompleted, snap.State)
		require.Equal(t, 3*time.Hour, snap.Countdown)
		require.Equal(t, []apimodel.RewardSummary{res.Reward}, f.rewards)

		_, err = f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 4})
		require.ErrorIs(t, err, gate.ErrNotEligible)
		_, submits := f.api.calls()
		require.Equal(t, 1, submits)
	})

	t.Run("not eligible before a query", func(t *testing.T) {
		f := newGateFixture(t, now)
		_, err := f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 4})
		require.ErrorIs(t, err, gate.ErrNotEligible)
		_, submits := f.api.calls()
		require.Zero(t, submits)
	})

	t.Run("duplicate reconciles with the server record", func(t *testing.T) {
		f := newGateFixture(t, now)
		_, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)

		// Another device checked in meanwhile.
		f.api.set(func(a *fakeAPI) {
			a.submitErr = conflict()
			a.status = completedStatus(now.Add(-time.Minute))
		})

		res, err := f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 2})
		require.NoError(t, err)
		require.True(t, res.Reconciled)
		require.Equal(t, "existing", res.Record.ID)
		require.Equal(t, 2, res.Reward.Streak)
		require.Empty(t, f.rewards, "reconciled records are not forwarded as new rewards")

		snap := f.gate.Snapshot()
		require.Equal(t, gate.StateCompleted, snap.State)
		require.Equal(t, "existing", snap.Record.ID)

		statusCalls, _ := f.api.calls()
		require.Equal(t, 2, statusCalls, "one initial query and one follow-up")
	})

	t.Run("duplicate with failed follow-up stays completed", func(t *testing.T) {
		f := newGateFixture(t, now)
		_, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)
		f.api.set(func(a *fakeAPI) {
			a.submitErr = conflict()
			a.statusErr = errors.New("offline")
		})

		res, err := f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 2})
		require.NoError(t, err)
		require.True(t, res.Reconciled)
		require.Nil(t, res.Record)

		snap := f.gate.Snapshot()
		require.Equal(t, gate.StateCompleted, snap.State)
		require.Nil(t, snap.Record)
		require.Equal(t, 3*time.Hour, snap.Countdown)
	})

	t.Run("other failures return to eligible", func(t *testing.T) {
		f := newGateFixture(t, now)
		_, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)
		failure := pipeline.NewHTTPError(500, nil)
		f.api.submitErr = failure

		_, err = f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 5})
		require.ErrorIs(t, err, failure)
		snap := f.gate.Snapshot()
		require.Equal(t, gate.StateEligible, snap.State)
		require.ErrorIs(t, snap.Err, failure)

		f.api.set(func(a *fakeAPI) {
			a.submitErr = nil
			a.submitResp = accepted(now)
		})
		_, err = f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 5})
		require.NoError(t, err)
		require.Equal(t, gate.StateCompleted, f.gate.Snapshot().State)
		require.NoError(t, f.gate.Snapshot().Err)
	})
}

func TestSubmitting(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	start := func(t *testing.T) (*gateFixture, chan struct{}, chan error) {
		t.Helper()
		f := newGateFixture(t, now)
		_, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)

		release := make(chan struct{})
		f.api.set(func(a *fakeAPI) {
			a.release = release
			a.submitResp = accepted(now)
		})

		done := make(chan error, 1)
		go func() {
			_, err := f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 3})
			done <- err
		}()
		require.Eventually(t, func() bool {
			_, submits := f.api.calls()
			return submits == 1
		}, time.Second, time.Millisecond)
		require.Equal(t, gate.StateSubmitting, f.gate.Snapshot().State)
		return f, release, done
	}

	t.Run("query while submitting does not hit the server", func(t *testing.T) {
		f, release, done := start(t)

		snap, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateSubmitting, snap.State)

		_, err = f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 3})
		require.ErrorIs(t, err, gate.ErrNotEligible)

		close(release)
		require.NoError(t, <-done)
		statusCalls, submits := f.api.calls()
		require.Equal(t, 1, statusCalls)
		require.Equal(t, 1, submits)
		require.Equal(t, gate.StateCompleted, f.gate.Snapshot().State)
	})

	t.Run("reset discards the in-flight result", func(t *testing.T) {
		f, release, done := start(t)

		f.gate.Reset()
		require.Equal(t, gate.StateUnknown, f.gate.Snapshot().State)

		close(release)
		require.ErrorIs(t, <-done, gate.ErrDiscarded)
		require.Equal(t, gate.StateUnknown, f.gate.Snapshot().State)
		require.Empty(t, f.rewards)
	})
}

func TestTickCountdown(t *testing.T) {
	evening := time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC)

	completedAt := func(t *testing.T) *gateFixture {
		t.Helper()
		f := newGateFixture(t, evening)
		f.api.status = completedStatus(evening.Add(-time.Hour))
		snap, err := f.gate.QueryStatus(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateCompleted, snap.State)
		return f
	}

	t.Run("counts down without querying", func(t *testing.T) {
		f := completedAt(t)
		f.clock.Set(evening.Add(30 * time.Minute))

		snap, err := f.gate.TickCountdown(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateCompleted, snap.State)
		require.Equal(t, 30*time.Minute, snap.Countdown)
		statusCalls, _ := f.api.calls()
		require.Equal(t, 1, statusCalls)
	})

	t.Run("zero re-queries once and trusts the server", func(t *testing.T) {
		f := completedAt(t)
		f.clock.Set(evening.Add(time.Hour + time.Second))
		f.api.set(func(a *fakeAPI) { a.status = &apimodel.StatusResponse{CanPerform: true} })

		snap, err := f.gate.TickCountdown(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateEligible, snap.State)

		_, err = f.gate.TickCountdown(context.Background())
		require.NoError(t, err)
		statusCalls, _ := f.api.calls()
		require.Equal(t, 2, statusCalls)
	})

	t.Run("server still reports completed after local midnight", func(t *testing.T) {
		f := completedAt(t)
		f.clock.Set(evening.Add(time.Hour + time.Second))
		// Server day has not rolled over yet.

		snap, err := f.gate.TickCountdown(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateCompleted, snap.State)
		require.Greater(t, snap.Countdown, time.Duration(0))

		_, err = f.gate.TickCountdown(context.Background())
		require.NoError(t, err)
		statusCalls, _ := f.api.calls()
		require.Equal(t, 2, statusCalls, "no repeated queries while the new countdown runs")
	})

	t.Run("failed re-query leaves error state", func(t *testing.T) {
		f := completedAt(t)
		f.clock.Set(evening.Add(2 * time.Hour))
		f.api.set(func(a *fakeAPI) { a.statusErr = errors.New("offline") })

		snap, err := f.gate.TickCountdown(context.Background())
		require.Error(t, err)
		require.Equal(t, gate.StateError, snap.State)

		_, err = f.gate.TickCountdown(context.Background())
		require.NoError(t, err, "error state does not re-query on tick")
		statusCalls, _ := f.api.calls()
		require.Equal(t, 2, statusCalls)
	})

	t.Run("not completed is a no-op", func(t *testing.T) {
		f := newGateFixture(t, evening)
		snap, err := f.gate.TickCountdown(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateUnknown, snap.State)
		statusCalls, _ := f.api.calls()
		require.Zero(t, statusCalls)
	})
}

func TestServerClockAhead(t *testing.T) {
	// The client submits just before its local midnight; the server, a few
	// seconds ahead, stamps the record on the next day.
	clientNow := time.Date(2026, 6, 1, 23, 59, 30, 0, time.UTC)
	serverStamp := time.Date(2026, 6, 2, 0, 0, 10, 0, time.UTC)

	f := newGateFixture(t, clientNow)
	f.api.submitResp = accepted(serverStamp)
	_, err := f.gate.QueryStatus(context.Background())
	require.NoError(t, err)

	res, err := f.gate.Submit(context.Background(), apimodel.CheckInPayload{Mood: 4, Feedback: "ok"})
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, f.gate.Snapshot().Countdown)

	f.api.set(func(a *fakeAPI) {
		a.status = &apimodel.StatusResponse{CompletedToday: true, Record: res.Record}
	})

	// Local midnight passes; the server still reports the check-in as today's.
	f.clock.Set(time.Date(2026, 6, 2, 0, 0, 1, 0, time.UTC))
	snap, err := f.gate.TickCountdown(context.Background())
	require.NoError(t, err)
	require.Equal(t, gate.StateCompleted, snap.State)
	require.Equal(t, res.Record.ID, snap.Record.ID)
	require.Equal(t, 24*time.Hour-time.Second, snap.Countdown)

	for i := 0; i < 3; i++ {
		snap, err = f.gate.QueryStatus(context.Background())
		require.NoError(t, err)
		require.Equal(t, gate.StateCompleted, snap.State)
		require.Equal(t, res.Record.ID, snap.Record.ID)
	}
}
