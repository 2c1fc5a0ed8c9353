package refreshrepofake

import (
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/jrsteele09/go-checkin/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens map[string]refresh.StoredRefreshToken
	lock   sync.RWMutex
}

func NewFakeRefreshTokenRepo() refresh.Repo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]refresh.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(refreshToken *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[refreshToken.Token] = *refreshToken
	return nil
}

func (tr *FakeRefreshTokenRepo) Delete(token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tokens[token]; !ok {
		return errors.ErrNotFound
	}
	delete(tr.tokens, token)
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &rt, nil
}

func (tr *FakeRefreshTokenRepo) ListByUserID(userID string) ([]*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tokens := make([]*refresh.StoredRefreshToken, 0)
	for _, v := range tr.tokens {
		if v.UserID == userID {
			rt := v
			tokens = append(tokens, &rt)
		}
	}

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Iat.Before(tokens[j].Iat)
	})
	return tokens, nil
}

func (tr *FakeRefreshTokenRepo) DeleteExpired(before time.Time) (int, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	removed := 0
	for k, v := range tr.tokens {
		if !before.Before(v.ExpiresAt) {
			delete(tr.tokens, k)
			removed++
		}
	}
	return removed, nil
}
