package wellness_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/pipeline"
	"github.com/jrsteele09/go-checkin/client/wellness"
	"github.com/stretchr/testify/require"
)

// fakeSender answers from a table keyed by "METHOD path".
type fakeSender struct {
	responses map[string]func(req *pipeline.Request) (*pipeline.Response, error)
	requests  []*pipeline.Request
}

func (f *fakeSender) Send(_ context.Context, req *pipeline.Request) (*pipeline.Response, error) {
	f.requests = append(f.requests, req)
	h, ok := f.responses[req.Method+" "+req.Path]
	if !ok {
		return nil, pipeline.NewHTTPError(http.StatusNotFound, nil)
	}
	return h(req)
}

func jsonResponse(t *testing.T, status int, v any) *pipeline.Response {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return &pipeline.Response{StatusCode: status, Body: b}
}

func TestStatus(t *testing.T) {
	next := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	f := &fakeSender{responses: map[string]func(*pipeline.Request) (*pipeline.Response, error){
		"GET " + apimodel.RouteCheckInStatus: func(*pipeline.Request) (*pipeline.Response, error) {
			return jsonResponse(t, http.StatusOK, apimodel.StatusResponse{CanPerform: true, NextEligibleAt: next}), nil
		},
	}}

	status, err := wellness.New(f).Status(context.Background())
	require.NoError(t, err)
	require.True(t, status.CanPerform)
	require.False(t, status.CompletedToday)
	require.Nil(t, status.Record)
	require.True(t, next.Equal(status.NextEligibleAt))
}

func TestSubmit(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := &fakeSender{responses: map[string]func(*pipeline.Request) (*pipeline.Response, error){
			"POST " + apimodel.RouteCheckIn: func(req *pipeline.Request) (*pipeline.Response, error) {
				p := req.Body.(apimodel.CheckInPayload)
				return jsonResponse(t, http.StatusCreated, apimodel.SubmitResponse{
					Record:        apimodel.Record{ID: "r1", Payload: p},
					RewardSummary: apimodel.RewardSummary{PointsAwarded: 10, Streak: 1, TotalPoints: 10},
				}), nil
			},
		}}

		out, err := wellness.New(f).Submit(context.Background(), apimodel.CheckInPayload{Mood: 4, Feedback: "good"})
		require.NoError(t, err)
		require.Equal(t, "r1", out.Record.ID)
		require.Equal(t, 4, out.Record.Payload.Mood)
		require.Equal(t, 10, out.RewardSummary.PointsAwarded)
	})

	t.Run("conflict is a duplicate action", func(t *testing.T) {
		f := &fakeSender{responses: map[string]func(*pipeline.Request) (*pipeline.Response, error){
			"POST " + apimodel.RouteCheckIn: func(*pipeline.Request) (*pipeline.Response, error) {
				return nil, pipeline.NewHTTPError(http.StatusConflict, []byte(`{"message":"already checked in today"}`))
			},
		}}

		_, err := wellness.New(f).Submit(context.Background(), apimodel.CheckInPayload{Mood: 3})
		require.ErrorIs(t, err, wellness.ErrDuplicateAction)
		require.Equal(t, http.StatusConflict, pipeline.StatusCode(err))
	})

	t.Run("validation passes through", func(t *testing.T) {
		f := &fakeSender{responses: map[string]func(*pipeline.Request) (*pipeline.Response, error){
			"POST " + apimodel.RouteCheckIn: func(*pipeline.Request) (*pipeline.Response, error) {
				return nil, pipeline.NewHTTPError(http.StatusBadRequest, []byte(`{"message":"validation failed","errors":[{"field":"mood","message":"must be between 1 and 5"}]}`))
			},
		}}

		_, err := wellness.New(f).Submit(context.Background(), apimodel.CheckInPayload{Mood: 9})
		require.False(t, errors.Is(err, wellness.ErrDuplicateAction))
		var ve *pipeline.ValidationError
		require.True(t, errors.As(err, &ve))
		require.Equal(t, "mood must be between 1 and 5", ve.Message)
	})
}

func TestHistory(t *testing.T) {
	f := &fakeSender{responses: map[string]func(*pipeline.Request) (*pipeline.Response, error){
		"GET " + apimodel.RouteCheckInHistory: func(*pipeline.Request) (*pipeline.Response, error) {
			return jsonResponse(t, http.StatusOK, apimodel.HistoryResponse{Records: []apimodel.Record{{ID: "b"}, {ID: "a"}}, TotalPoints: 21}), nil
		},
	}}
	api := wellness.New(f)

	history, err := api.History(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, history.Records, 2)
	require.Equal(t, "b", history.Records[0].ID)
	require.Equal(t, 21, history.TotalPoints)
	require.Equal(t, "7", f.requests[0].Query.Get("limit"))

	_, err = api.History(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, f.requests[1].Query)
}
