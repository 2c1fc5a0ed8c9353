package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/jrsteele09/go-checkin/users"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem creates the bootstrap user named by BOOTSTRAP_EMAIL if it
// does not exist yet. Without BOOTSTRAP_PASSWORD a password is generated and
// logged once.
func (s *Server) InitialiseSystem() error {
	email := s.config.GetBootstrapEmail()
	if email == "" {
		return nil
	}

	if existing, err := s.users.GetByEmail(email); err == nil {
		log.Info().Str("email", existing.Email).Msg("bootstrap user already exists")
		return nil
	} else if !errors.Is(err, errors.ErrUserNotFound) {
		return fmt.Errorf("failed to check for bootstrap user: %w", err)
	}

	password := s.config.GetBootstrapPassword()
	generated := password == ""

	var user *users.User
	if generated {
		var err error
		if password, err = generatePassword(); err != nil {
			return err
		}
		hash, err := users.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user = &users.User{
			Email:        users.NormaliseEmail(email),
			PasswordHash: hash,
			DateJoined:   s.nowFunc(),
		}
	} else {
		var err error
		if user, err = users.NewUser(email, password, "", s.nowFunc()); err != nil {
			return fmt.Errorf("bootstrap password rejected: %w", err)
		}
	}

	if err := s.users.Upsert(user); err != nil {
		return fmt.Errorf("failed to create bootstrap user: %w", err)
	}

	event := log.Info().Str("email", user.Email)
	if generated {
		event = event.Str("password", password)
	}
	event.Msg("created bootstrap user")
	return nil
}

func generatePassword() (string, error) {
	passwordBytes := make([]byte, 16)
	if _, err := rand.Read(passwordBytes); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(passwordBytes), nil
}
