package services

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/moodlebridge/internal/moodle"
)

// RemoteDirectory is the subset of *moodle.Client the services depend on.
type RemoteDirectory interface {
	Courses(ctx context.Context) ([]moodle.Course, error)
	CourseByID(ctx context.Context, id int64) (*moodle.Course, error)
	FindUserBy(ctx context.Context, field, value string) (*moodle.User, error)
	CreateUser(ctx context.Context, u moodle.NewUser) (*moodle.User, error)
	Enroll(ctx context.Context, userID, courseID int64) (json.RawMessage, error)
	SiteInfo(ctx context.Context) (*moodle.SiteInfo, error)
	UserCourses(ctx context.Context, userID int64) ([]moodle.Course, error)
}

var _ RemoteDirectory = (*moodle.Client)(nil)
