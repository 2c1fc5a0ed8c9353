// Package wellness wraps the daily check-in endpoints.
package wellness

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/client/pipeline"
)

// ErrDuplicateAction is returned by Submit when the server already holds a
// check-in for today.
var ErrDuplicateAction = errors.New("already checked in today")

// Sender is satisfied by *pipeline.Pipeline.
type Sender interface {
	Send(ctx context.Context, req *pipeline.Request) (*pipeline.Response, error)
}

type API struct {
	sender Sender
}

func New(sender Sender) *API {
	return &API{sender: sender}
}

func (a *API) Status(ctx context.Context) (*apimodel.StatusResponse, error) {
	resp, err := a.sender.Send(ctx, &pipeline.Request{Method: http.MethodGet, Path: apimodel.RouteCheckInStatus})
	if err != nil {
		return nil, err
	}
	var status apimodel.StatusResponse
	if err := resp.Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &status, nil
}

// Submit performs today's check-in. A 409 from the server is reported as
// ErrDuplicateAction, still wrapping the *pipeline.HTTPError.
func (a *API) Submit(ctx context.Context, payload apimodel.CheckInPayload) (*apimodel.SubmitResponse, error) {
	resp, err := a.sender.Send(ctx, &pipeline.Request{Method: http.MethodPost, Path: apimodel.RouteCheckIn, Body: payload})
	if err != nil {
		if pipeline.StatusCode(err) == http.StatusConflict {
			return nil, fmt.Errorf("%w: %w", ErrDuplicateAction, err)
		}
		return nil, err
	}
	var out apimodel.SubmitResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode check-in: %w", err)
	}
	return &out, nil
}

// History returns up to limit records, newest first. A limit of zero uses the
// server default.
func (a *API) History(ctx context.Context, limit int) (apimodel.HistoryResponse, error) {
	req := &pipeline.Request{Method: http.MethodGet, Path: apimodel.RouteCheckInHistory}
	if limit > 0 {
		req.Query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	resp, err := a.sender.Send(ctx, req)
	if err != nil {
		return apimodel.HistoryResponse{}, err
	}
	var out apimodel.HistoryResponse
	if err := resp.Decode(&out); err != nil {
		return apimodel.HistoryResponse{}, fmt.Errorf("failed to decode history: %w", err)
	}
	return out, nil
}
