package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/moodle"
)

// DirectoryService exposes the read-only remote lookups.
type DirectoryService struct {
	remote RemoteDirectory
}

func NewDirectoryService(remote RemoteDirectory) *DirectoryService {
	return &DirectoryService{remote: remote}
}

func (s *DirectoryService) Courses(ctx context.Context) ([]moodle.Course, error) {
	courses, err := s.remote.Courses(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []moodle.Course{}
	}
	return courses, nil
}

// FindUser looks a remote user up by username, or by email when username
// is empty.
func (s *DirectoryService) FindUser(ctx context.Context, username, email string) (*moodle.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	switch {
	case username != "":
		return s.remote.FindUserBy(ctx, "username", username)
	case email != "":
		return s.remote.FindUserBy(ctx, "email", email)
	default:
		return nil, common.ErrorMissingParams
	}
}

func (s *DirectoryService) SiteInfo(ctx context.Context) (*moodle.SiteInfo, error) {
	return s.remote.SiteInfo(ctx)
}

// EnrolledCourses lists the courses of remoteUserID, or of the token's own
// user when remoteUserID is zero.
func (s *DirectoryService) EnrolledCourses(ctx context.Context, remoteUserID int64) ([]moodle.Course, error) {
	if remoteUserID == 0 {
		info, err := s.remote.SiteInfo(ctx)
		if err != nil {
			return nil, err
		}
		remoteUserID = info.UserID
	}

	courses, err := s.remote.UserCourses(ctx, remoteUserID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []moodle.Course{}
	}
	return courses, nil
}
