package checkin

import "context"

// Repo stores check-in records. Implementations must make Create atomic with
// respect to (UserID, Day): of two concurrent creates for the same pair exactly
// one succeeds and the other returns ErrAlreadyCheckedIn.
type Repo interface {
	Create(ctx context.Context, rec *Record) error
	GetByDay(ctx context.Context, userID, day string) (*Record, error)
	List(ctx context.Context, userID string, limit int) ([]*Record, error) // newest first
	TotalPoints(ctx context.Context, userID string) (int, error)
}
