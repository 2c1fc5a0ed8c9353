package users

import "time"

type UserRepo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	SetBlocked(email string, blocked bool) error
	SetLastLogin(ID string, at time.Time) error
}
