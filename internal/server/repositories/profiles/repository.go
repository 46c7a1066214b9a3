// Package profiles stores the one-to-one profile extension of local users.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
)

type Repository interface {
	// Create inserts p. A second profile for the same user yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, userID int64) (*models.Profile, error)
	// GetOrCreate returns the user's profile, inserting an empty one if
	// none exists. The bool reports whether a row was created.
	GetOrCreate(ctx context.Context, userID int64) (*models.Profile, bool, error)
}
