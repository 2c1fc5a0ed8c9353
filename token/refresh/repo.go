package refresh

import (
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field, carried in an HttpOnly cookie.
type StoredRefreshToken struct {
	Token     string    // The actual random token string (sent to client)
	UserID    string    // Server-side metadata
	Iat       time.Time // Issued at
	ExpiresAt time.Time
}

// Repo manages server-side storage of refresh tokens keyed by the token string.
// A user may hold several tokens at once, one per logged-in device.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	ListByUserID(userID string) ([]*StoredRefreshToken, error)
	DeleteExpired(before time.Time) (int, error)
}
