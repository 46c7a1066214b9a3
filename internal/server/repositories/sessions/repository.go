// Package sessions declares the repository contract for server-side login
// sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
)

// Repository defines operations for opening, resolving, and closing sessions.
type Repository interface {
	// Create stores a new session id for userID expiring at now+validity.
	Create(ctx context.Context, id string, userID int64, validity time.Duration) (*models.Session, error)

	// Find returns the session with the given id or common.ErrorNotFound.
	Find(ctx context.Context, id string) (*models.Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every session that expired before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
