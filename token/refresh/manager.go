package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/go-checkin/internal/config"
	"github.com/jrsteele09/go-checkin/internal/errors"
)

// Manager handles refresh token creation, validation and expiry.
//
// Tokens are not rotated on use: a refresh only mints a new access token, so
// several concurrent refreshes presenting the same cookie all succeed.
type Manager struct {
	repo    Repo
	expiry  time.Duration
	length  int
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(f func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = f
	}
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.TokenConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		repo:    repo,
		expiry:  cfg.GetRefreshTokenExpiry(),
		length:  cfg.GetRefreshTokenLength(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Create generates a new refresh token for the user and stores it
func (m *Manager) Create(userID string) (*StoredRefreshToken, error) {
	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	now := m.nowFunc()
	rt := &StoredRefreshToken{
		Token:     hex.EncodeToString(tokenBytes),
		UserID:    userID,
		Iat:       now,
		ExpiresAt: now.Add(m.expiry),
	}
	if err := m.repo.Upsert(rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt, nil
}

// Validate returns the stored token if it exists and has not expired.
// Expired tokens are removed as they are found.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, errors.ErrInvalidRefreshToken
	}

	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, errors.ErrInvalidRefreshToken
	}

	if !m.nowFunc().Before(rt.ExpiresAt) {
		_ = m.repo.Delete(token)
		return nil, errors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// Delete removes a refresh token from storage. Unknown tokens are ignored.
func (m *Manager) Delete(token string) error {
	if token == "" {
		return nil
	}
	if err := m.repo.Delete(token); err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}
	return nil
}

// Cleanup drops every token that has expired.
func (m *Manager) Cleanup() (int, error) {
	return m.repo.DeleteExpired(m.nowFunc())
}
