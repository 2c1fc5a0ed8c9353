package checkinrepofake

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/go-checkin/checkin"
	"github.com/jrsteele09/go-checkin/internal/errors"
)

var _ checkin.Repo = (*FakeCheckInRepo)(nil)

type FakeCheckInRepo struct {
	records map[string]map[string]checkin.Record // user ID -> day -> record
	lock    sync.RWMutex
}

func NewFakeCheckInRepo() *FakeCheckInRepo {
	return &FakeCheckInRepo{
		records: make(map[string]map[string]checkin.Record),
	}
}

func (r *FakeCheckInRepo) Create(_ context.Context, rec *checkin.Record) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	days, ok := r.records[rec.UserID]
	if !ok {
		days = make(map[string]checkin.Record)
		r.records[rec.UserID] = days
	}
	if _, exists := days[rec.Day]; exists {
		return checkin.ErrAlreadyCheckedIn
	}
	days[rec.Day] = *rec
	return nil
}

func (r *FakeCheckInRepo) GetByDay(_ context.Context, userID, day string) (*checkin.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	rec, ok := r.records[userID][day]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &rec, nil
}

func (r *FakeCheckInRepo) List(_ context.Context, userID string, limit int) ([]*checkin.Record, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*checkin.Record, 0, len(r.records[userID]))
	for _, v := range r.records[userID] {
		rec := v
		list = append(list, &rec)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].PerformedAt.After(list[j].PerformedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *FakeCheckInRepo) TotalPoints(_ context.Context, userID string) (int, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	total := 0
	for _, rec := range r.records[userID] {
		total += rec.PointsAwarded
	}
	return total, nil
}
