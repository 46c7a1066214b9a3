package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/moodlebridge/internal/logging"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/repomanager"
)

// PlaceholderCourseName is the name a mirror row carries until backfilled.
func PlaceholderCourseName(moodleID int64) string {
	return fmt.Sprintf("Curso %d", moodleID)
}

// CourseMirror lazily creates local course rows for remote course ids.
type CourseMirror struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	remote      RemoteDirectory
	log         logging.Logger
}

func NewCourseMirror(db *sql.DB, m repomanager.RepositoryManager, remote RemoteDirectory, log logging.Logger) *CourseMirror {
	return &CourseMirror{db: db, repomanager: m, remote: remote, log: log}
}

// Ensure returns the mirror row for moodleID. A freshly created row is
// backfilled from the remote course details; if that fails the row keeps
// its placeholder name and Ensure still succeeds.
func (m *CourseMirror) Ensure(ctx context.Context, moodleID int64) (*models.Course, error) {
	repo := m.repomanager.Courses(m.db)

	course, created, err := repo.GetOrCreate(ctx, moodleID, PlaceholderCourseName(moodleID))
	if err != nil {
		return nil, err
	}
	if !created {
		return course, nil
	}

	m.log.Info(ctx, "course mirrored", "moodle_id", moodleID)

	remote, err := m.remote.CourseByID(ctx, moodleID)
	if err != nil {
		m.log.Warn(ctx, "course backfill failed", "moodle_id", moodleID, "error", err)
		return course, nil
	}

	if remote.FullName != "" {
		course.Name = remote.FullName
	}
	course.Summary = remote.Summary
	course.Category = remote.CategoryRef()
	course.StartDate = remote.StartDate
	course.EndDate = remote.EndDate
	if img := remote.ImageURL(); img != "" {
		course.ImageURL = &img
	}

	if err := repo.UpdateDetails(ctx, course); err != nil {
		m.log.Warn(ctx, "course backfill not stored", "moodle_id", moodleID, "error", err)
		course.Name = PlaceholderCourseName(moodleID)
		course.Summary, course.Category, course.StartDate, course.EndDate, course.ImageURL = "", nil, nil, nil, nil
	}
	return course, nil
}
