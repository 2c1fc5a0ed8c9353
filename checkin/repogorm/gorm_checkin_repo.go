// Package checkinrepogorm stores check-ins in Postgres through gorm. A unique
// index on (user_id, day) makes the one-per-day rule hold across processes.
package checkinrepogorm

import (
	"context"
	"time"

	"github.com/jrsteele09/go-checkin/checkin"
	"github.com/jrsteele09/go-checkin/internal/errors"
	"gorm.io/gorm"
)

var _ checkin.Repo = (*GormCheckInRepo)(nil)

type CheckIn struct {
	ID            string    `gorm:"primaryKey;type:uuid"`
	UserID        string    `gorm:"not null;uniqueIndex:idx_checkins_user_day,priority:1"`
	Day           string    `gorm:"not null;size:10;uniqueIndex:idx_checkins_user_day,priority:2"`
	PerformedAt   time.Time `gorm:"not null;index"`
	Mood          int       `gorm:"not null"`
	Feedback      string    `gorm:"size:2000"`
	PointsAwarded int       `gorm:"not null;default:0"`
	Streak        int       `gorm:"not null;default:1"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (CheckIn) TableName() string {
	return "checkins"
}

type GormCheckInRepo struct {
	db *gorm.DB
}

// New migrates the checkins table and returns the repo. The db must be
// opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
func New(db *gorm.DB) (*GormCheckInRepo, error) {
	if err := db.AutoMigrate(&CheckIn{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate checkins")
	}
	return &GormCheckInRepo{db: db}, nil
}

func (r *GormCheckInRepo) Create(ctx context.Context, rec *checkin.Record) error {
	row := fromRecord(rec)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return checkin.ErrAlreadyCheckedIn
		}
		return err
	}
	return nil
}

func (r *GormCheckInRepo) GetByDay(ctx context.Context, userID, day string) (*checkin.Record, error) {
	var row CheckIn
	err := r.db.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	return row.toRecord(), nil
}

func (r *GormCheckInRepo) List(ctx context.Context, userID string, limit int) ([]*checkin.Record, error) {
	var rows []CheckIn
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("performed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := make([]*checkin.Record, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].toRecord())
	}
	return list, nil
}

func (r *GormCheckInRepo) TotalPoints(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&CheckIn{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points_awarded), 0)").
		Scan(&total).Error
	return total, err
}

func fromRecord(rec *checkin.Record) CheckIn {
	return CheckIn{
		ID:            rec.ID,
		UserID:        rec.UserID,
		Day:           rec.Day,
		PerformedAt:   rec.PerformedAt.UTC(),
		Mood:          rec.Payload.Mood,
		Feedback:      rec.Payload.Feedback,
		PointsAwarded: rec.PointsAwarded,
		Streak:        rec.Streak,
	}
}

func (c CheckIn) toRecord() *checkin.Record {
	return &checkin.Record{
		ID:          c.ID,
		UserID:      c.UserID,
		Day:         c.Day,
		PerformedAt: c.PerformedAt.UTC(),
		Payload: checkin.Payload{
			Mood:     c.Mood,
			Feedback: c.Feedback,
		},
		PointsAwarded: c.PointsAwarded,
		Streak:        c.Streak,
	}
}
