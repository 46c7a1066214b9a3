// Package enrollments stores the local mirror of remote enrolments.
package enrollments

import (
	"context"

	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
)

type Repository interface {
	// GetOrCreate records (userID, courseID) once. The bool reports whether
	// the row was created by this call.
	GetOrCreate(ctx context.Context, userID, courseID int64) (*models.Enrollment, bool, error)
	// ListByCourse returns every enrollment of a local course joined with
	// its user and optional profile, oldest first.
	ListByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentRow, error)
}
