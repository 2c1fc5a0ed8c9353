package refreshrepogorm

import (
	"time"

	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/jrsteele09/go-checkin/token/refresh"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ refresh.Repo = (*GormRefreshTokenRepo)(nil)

type RefreshToken struct {
	Token     string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;not null"`
	Iat       time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

type GormRefreshTokenRepo struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*GormRefreshTokenRepo, error) {
	if err := db.AutoMigrate(&RefreshToken{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate refresh tokens")
	}
	return &GormRefreshTokenRepo{db: db}, nil
}

func (r *GormRefreshTokenRepo) Upsert(rt *refresh.StoredRefreshToken) error {
	row := RefreshToken{Token: rt.Token, UserID: rt.UserID, Iat: rt.Iat.UTC(), ExpiresAt: rt.ExpiresAt.UTC()}
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (r *GormRefreshTokenRepo) Delete(token string) error {
	res := r.db.Delete(&RefreshToken{}, "token = ?", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (r *GormRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	var row RefreshToken
	if err := r.db.First(&row, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	return row.toStored(), nil
}

func (r *GormRefreshTokenRepo) ListByUserID(userID string) ([]*refresh.StoredRefreshToken, error) {
	var rows []RefreshToken
	if err := r.db.Where("user_id = ?", userID).Order("iat").Find(&rows).Error; err != nil {
		return nil, err
	}
	tokens := make([]*refresh.StoredRefreshToken, 0, len(rows))
	for _, row := range rows {
		tokens = append(tokens, row.toStored())
	}
	return tokens, nil
}

func (r *GormRefreshTokenRepo) DeleteExpired(before time.Time) (int, error) {
	res := r.db.Delete(&RefreshToken{}, "expires_at <= ?", before.UTC())
	return int(res.RowsAffected), res.Error
}

func (row RefreshToken) toStored() *refresh.StoredRefreshToken {
	return &refresh.StoredRefreshToken{
		Token:     row.Token,
		UserID:    row.UserID,
		Iat:       row.Iat,
		ExpiresAt: row.ExpiresAt,
	}
}
