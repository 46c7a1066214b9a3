// Package courses stores the local mirror of remote courses.
package courses

import (
	"context"

	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
)

type Repository interface {
	// GetOrCreate returns the mirror row for moodleID, inserting one named
	// placeholder when absent. The bool reports whether a row was created.
	GetOrCreate(ctx context.Context, moodleID int64, placeholder string) (*models.Course, bool, error)
	GetByMoodleID(ctx context.Context, moodleID int64) (*models.Course, error)
	// UpdateDetails overwrites the descriptive fields of c, keyed by c.ID.
	UpdateDetails(ctx context.Context, c *models.Course) error
}
