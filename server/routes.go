package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	// Auth
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS /auth/", ChainMiddleware(noContent, s.APIMiddleware()...))

	// Daily check-in
	s.RegisterRouteHandler("GET "+RouteCheckInStatus, ChainMiddleware(s.CheckInStatusHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteCheckIn, ChainMiddleware(s.CheckInSubmitHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteCheckInHistory, ChainMiddleware(s.CheckInHistoryHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(noContent, s.APIMiddleware()...))

	// Operational
	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKSHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealthz, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
