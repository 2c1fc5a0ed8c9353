package userrepogorm

import (
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/jrsteele09/go-checkin/users"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ users.UserRepo = (*GormUserRepo)(nil)

type User struct {
	ID           string `gorm:"primaryKey;type:uuid"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	DateJoined   time.Time
	LastLogin    *time.Time
	Blocked      bool `gorm:"not null;default:false"`
}

type GormUserRepo struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*GormUserRepo, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate users")
	}
	return &GormUserRepo{db: db}, nil
}

// Upsert inserts the user or, when the email already exists, updates the
// stored profile and password while keeping the existing ID.
func (r *GormUserRepo) Upsert(user *users.User) error {
	user.Email = users.NormaliseEmail(user.Email)
	if user.ID == "" {
		if existing, err := r.GetByEmail(user.Email); err == nil {
			user.ID = existing.ID
		} else {
			user.ID = uuid.New().String()
		}
	}

	row := fromUser(user)
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "display_name", "blocked"}),
	}).Create(&row).Error
}

func (r *GormUserRepo) GetByEmail(email string) (*users.User, error) {
	return r.first("email = ?", users.NormaliseEmail(email))
}

func (r *GormUserRepo) GetByID(id string) (*users.User, error) {
	return r.first("id = ?", id)
}

func (r *GormUserRepo) SetBlocked(email string, blocked bool) error {
	res := r.db.Model(&User{}).Where("email = ?", users.NormaliseEmail(email)).Update("blocked", blocked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepo) SetLastLogin(id string, at time.Time) error {
	res := r.db.Model(&User{}).Where("id = ?", id).Update("last_login", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepo) first(query string, arg any) (*users.User, error) {
	var row User
	if err := r.db.Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return row.toUser(), nil
}

func fromUser(u *users.User) User {
	row := User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		DisplayName:  u.DisplayName,
		DateJoined:   u.DateJoined.UTC(),
		Blocked:      u.Blocked,
	}
	if !u.LastLogin.IsZero() {
		t := u.LastLogin.UTC()
		row.LastLogin = &t
	}
	return row
}

func (u User) toUser() *users.User {
	user := &users.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		DisplayName:  u.DisplayName,
		DateJoined:   u.DateJoined,
		Blocked:      u.Blocked,
	}
	if u.LastLogin != nil {
		user.LastLogin = *u.LastLogin
	}
	return user
}
