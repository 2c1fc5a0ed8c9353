package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-checkin/apimodel"
	"github.com/jrsteele09/go-checkin/internal/errors"
	"github.com/jrsteele09/go-checkin/users"
	"github.com/rs/zerolog/log"
)

// LoginHandler exchanges email and password for an access token and sets
// the refresh cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var fields []apimodel.FieldError
		if strings.TrimSpace(req.Email) == "" {
			fields = append(fields, apimodel.FieldError{Field: "email", Message: "email is required"})
		}
		if req.Password == "" {
			fields = append(fields, apimodel.FieldError{Field: "password", Message: "password is required"})
		}
		if len(fields) > 0 {
			writeValidationError(w, fields)
			return
		}

		user, err := s.users.GetByEmail(req.Email)
		if err != nil || !user.Authenticate(req.Password) {
			// Don't reveal if user exists or not
			writeError(w, http.StatusUnauthorized, errors.ErrInvalidCredentials.Error())
			return
		}
		if user.Blocked {
			writeError(w, http.StatusForbidden, errors.ErrUserBlocked.Error())
			return
		}

		if err := s.users.SetLastLogin(user.ID, s.nowFunc()); err != nil {
			log.Warn().Err(err).Str("user", user.ID).Msg("failed to record last login")
		}

		rt, err := s.refresh.Create(user.ID)
		if err != nil {
			log.Error().Err(err).Msg("failed to create refresh token")
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		resp, err := s.accessTokenResponse(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		s.setRefreshCookie(w, r, rt.Token)
		log.Info().Str("user", user.ID).Msg("login")
		writeJSON(w, http.StatusOK, resp)
	}
}

// RefreshHandler mints a new access token from the refresh cookie. The
// refresh token itself is left in place.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(apimodel.RefreshCookieName)
		if err != nil || cookie.Value == "" {
			s.metrics.Refresh("rejected")
			writeError(w, http.StatusUnauthorized, "missing refresh token")
			return
		}

		rt, err := s.refresh.Validate(cookie.Value)
		if err != nil {
			s.metrics.Refresh("rejected")
			s.clearRefreshCookie(w, r)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		user, err := s.users.GetByID(rt.UserID)
		if err != nil {
			s.metrics.Refresh("rejected")
			if err := s.refresh.Delete(rt.Token); err != nil {
				log.Warn().Err(err).Str("user", rt.UserID).Msg("failed to delete refresh token")
			}
			s.clearRefreshCookie(w, r)
			writeError(w, http.StatusUnauthorized, errors.ErrInvalidRefreshToken.Error())
			return
		}
		if user.Blocked {
			s.metrics.Refresh("blocked")
			if err := s.refresh.Delete(rt.Token); err != nil {
				log.Warn().Err(err).Str("user", rt.UserID).Msg("failed to delete refresh token")
			}
			s.clearRefreshCookie(w, r)
			writeError(w, http.StatusForbidden, errors.ErrUserBlocked.Error())
			return
		}

		resp, err := s.accessTokenResponse(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "refresh failed")
			return
		}

		s.metrics.Refresh("ok")
		writeJSON(w, http.StatusOK, resp)
	}
}

// LogoutHandler drops the refresh token and revokes the presented access
// token. It always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(apimodel.RefreshCookieName); err == nil {
			if err := s.refresh.Delete(cookie.Value); err != nil {
				log.Warn().Err(err).Msg("failed to delete refresh token")
			}
		}

		if raw, ok := bearerToken(r); ok {
			if claims, err := s.verifier.Verify(r.Context(), raw); err == nil {
				if err := s.revoked.Add(claims.JTI, claims.Expiry); err != nil {
					log.Warn().Err(err).Str("jti", claims.JTI).Msg("failed to revoke access token")
				}
			}
		}

		s.clearRefreshCookie(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, s.keys.JWKS())
	}
}

func (s *Server) accessTokenResponse(user *users.User) (*apimodel.TokenResponse, error) {
	at, err := s.issuer.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user", user.ID).Msg("failed to issue access token")
		return nil, err
	}
	return &apimodel.TokenResponse{
		AccessToken: at.Raw,
		TokenType:   "Bearer",
		ExpiresIn:   int(at.ExpiresIn.Seconds()),
	}, nil
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     apimodel.RefreshCookieName,
		Value:    value,
		Path:     apimodel.RefreshCookiePath,
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.refresh.Expiry().Seconds()),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     apimodel.RefreshCookieName,
		Value:    "",
		Path:     apimodel.RefreshCookiePath,
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
