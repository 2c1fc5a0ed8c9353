package apimodel

// Route paths shared by the server and the client.
const (
	RouteAuthLogin   = "/auth/login"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"

	RouteCheckIn        = "/api/wellness/checkin"
	RouteCheckInStatus  = "/api/wellness/checkin/status"
	RouteCheckInHistory = "/api/wellness/checkin/history"

	// RefreshCookieName carries the refresh token. It is HttpOnly and scoped
	// to RefreshCookiePath so it is never sent to the API routes.
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/auth"
)
