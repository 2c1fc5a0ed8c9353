package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/jrsteele09/go-checkin/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims stores the verified token claims
	ContextKeyClaims ContextKey = "claims"
)

// UserIDFromContext returns the user set by RequireAuth.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyUserID).(string)
	return id
}

// ClaimsFromContext returns the verified access token claims set by RequireAuth.
func ClaimsFromContext(ctx context.Context) *token.Claims {
	c, _ := ctx.Value(ContextKeyClaims).(*token.Claims)
	return c
}

// RequireAuth validates the Bearer access token. Every failure is a 401,
// which is what tells clients to refresh.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := s.verifier.Verify(r.Context(), raw)
			if err != nil {
				switch {
				case errors.Is(err, errors.ErrTokenExpired):
					unauthorized(w, "access token expired")
				case errors.Is(err, errors.ErrTokenRevoked):
					unauthorized(w, "access token revoked")
				default:
					log.Debug().Err(err).Msg("rejected access token")
					unauthorized(w, "invalid access token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeError(w, http.StatusUnauthorized, message)
}
