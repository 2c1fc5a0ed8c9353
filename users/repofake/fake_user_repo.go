package fakeuserrepo

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/jrsteele09/go-checkin/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = users.NormaliseEmail(user.Email)
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormaliseEmail(email)]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	u := *ur.users[id]
	return &u, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	u := *stored
	return &u, nil
}

func (ur *FakeUserRepo) SetBlocked(email string, blocked bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.emailIds[users.NormaliseEmail(email)]
	if !ok {
		return errors.ErrUserNotFound
	}
	ur.users[id].Blocked = blocked
	return nil
}

func (ur *FakeUserRepo) SetLastLogin(id string, at time.Time) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	stored, ok := ur.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	stored.LastLogin = at
	return nil
}
