// Package credentials keeps the current access token in two redundant
// locations so that losing one of them does not log the user out.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Credential is the bearer token currently in use. Its expiry is unknown to
// the client and is discovered through a 401.
type Credential struct {
	AccessToken string    `json:"accessToken"`
	ObtainedAt  time.Time `json:"obtainedAt"`
}

// OAuth2Token adapts the credential for oauth2.Token.SetAuthHeader.
func (c Credential) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{AccessToken: c.AccessToken, TokenType: "Bearer"}
}

// Location is one place a credential can be kept.
type Location interface {
	Load() (value string, ok bool, err error)
	Store(value string) error
	Remove() error
}

// Store mirrors the credential into a durable location, holding the JSON
// encoded Credential, and a cookie location, holding the raw token. It does no
// validation of its own.
type Store struct {
	mu      sync.RWMutex
	durable Location
	cookie  Location
	nowFunc func() time.Time
	logger  zerolog.Logger
}

type Option func(*Store)

func WithNowFunc(f func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = f
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

func NewStore(durable, cookie Location, opts ...Option) *Store {
	s := &Store{
		durable: durable,
		cookie:  cookie,
		nowFunc: time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes token to both locations. It fails only if neither write
// succeeded; a single failed location is logged.
func (s *Store) Save(token string) (Credential, error) {
	cred := Credential{AccessToken: token, ObtainedAt: s.nowFunc().UTC()}
	encoded, err := json.Marshal(cred)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to encode credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	durableErr := s.durable.Store(string(encoded))
	cookieErr := s.cookie.Store(token)
	switch {
	case durableErr != nil && cookieErr != nil:
		return Credential{}, errors.Join(durableErr, cookieErr)
	case durableErr != nil:
		s.logger.Warn().Err(durableErr).Msg("durable credential write failed")
	case cookieErr != nil:
		s.logger.Warn().Err(cookieErr).Msg("cookie credential write failed")
	}
	return cred, nil
}

// Read returns the durable value if present, else the cookie value.
func (s *Store) Read() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if raw, ok, err := s.durable.Load(); err != nil {
		s.logger.Warn().Err(err).Msg("durable credential read failed")
	} else if ok {
		var cred Credential
		if err := json.Unmarshal([]byte(raw), &cred); err == nil && cred.AccessToken != "" {
			return cred, true
		}
		s.logger.Warn().Msg("durable credential unreadable, trying cookie")
	}

	if token, ok, err := s.cookie.Load(); err != nil {
		s.logger.Warn().Err(err).Msg("cookie credential read failed")
	} else if ok && token != "" {
		return Credential{AccessToken: token}, true
	}
	return Credential{}, false
}

// Clear removes the credential from both locations.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.durable.Remove(), s.cookie.Remove())
}
