package server

import "github.com/jrsteele09/go-checkin/apimodel"

// Route path constants
const (
	// Auth Routes
	RouteAuthLogin   = apimodel.RouteAuthLogin
	RouteAuthRefresh = apimodel.RouteAuthRefresh
	RouteAuthLogout  = apimodel.RouteAuthLogout

	// Wellness check-in routes (bearer token required)
	RouteCheckIn        = apimodel.RouteCheckIn
	RouteCheckInStatus  = apimodel.RouteCheckInStatus
	RouteCheckInHistory = apimodel.RouteCheckInHistory

	// Operational
	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteHealthz       = "/healthz"
	RouteMetrics       = "/metrics"
)
