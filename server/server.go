package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-checkin/checkin"
	"github.com/jrsteele09/go-checkin/internal/config"
	"github.com/jrsteele09/go-checkin/token"
	"github.com/jrsteele09/go-checkin/token/refresh"
	"github.com/jrsteele09/go-checkin/users"
	"github.com/rs/zerolog/log"
)

// Deps are the stores the server runs on. Keys may be nil, in which case a
// fresh signing key is generated.
type Deps struct {
	Users         users.UserRepo
	CheckIns      checkin.Repo
	RefreshTokens refresh.Repo
	Keys          *token.KeyPair
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	nowFunc func() time.Time

	users    users.UserRepo
	checkIns *checkin.Service
	refresh  *refresh.Manager
	keys     *token.KeyPair
	issuer   *token.Issuer
	verifier *token.Verifier
	revoked  *token.InMemoryRevokedTokenCache
	limiter  *RateLimiter
	metrics  *Metrics
}

type Option func(*Server)

// WithNowFunc replaces the clock used for tokens, refresh expiry and the
// check-in day.
func WithNowFunc(f func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = f
	}
}

func New(cfg config.Config, deps Deps, opts ...Option) (*Server, error) {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		nowFunc: time.Now,
		users:   deps.Users,
		keys:    deps.Keys,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.keys == nil {
		keys, err := token.GenerateRSAKeyPair(fmt.Sprintf("key-%d", s.nowFunc().Unix()), 2048)
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to generate signing key: %w", err)
		}
		s.keys = keys
	}

	issuerURL := cfg.GetBaseURL()
	audience := cfg.GetTokenAudience()
	s.revoked = token.NewInMemoryRevokedTokenCache(s.nowFunc)
	s.issuer = token.NewIssuer(s.keys, issuerURL, audience, cfg.GetAccessTokenExpiry(), token.WithIssuerNowFunc(s.nowFunc))
	s.verifier = token.NewVerifier(s.keys, issuerURL, audience, s.revoked, s.nowFunc)
	s.refresh = refresh.NewManager(deps.RefreshTokens, cfg, refresh.WithNowFunc(s.nowFunc))
	s.checkIns = checkin.NewService(deps.CheckIns, cfg.GetCheckInLocation(), checkin.WithNowFunc(s.nowFunc))
	s.limiter = NewRateLimiter(cfg.GetRateLimitRPS(), cfg.GetRateLimitBurst(), s.nowFunc)
	s.metrics = NewMetrics()

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Cleanup purges expired refresh tokens, revoked access token ids and idle
// rate limiters.
func (s *Server) Cleanup() {
	removed, err := s.refresh.Cleanup()
	if err != nil {
		log.Error().Err(err).Msg("refresh token cleanup failed")
	}
	revoked := s.revoked.Cleanup()
	limiters := s.limiter.Cleanup(10 * time.Minute)

	log.Debug().
		Int("refresh_tokens", removed).
		Int("revoked_jtis", revoked).
		Int("limiters", limiters).
		Msg("cleanup complete")
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			log.Info().Msgf("[%s] %s", colourMethod(parts[0]), parts[1])
		} else {
			log.Info().Msgf("[%s] %s", colourMethod(""), parts[0])
		}
	}
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
