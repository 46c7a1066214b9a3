package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/moodle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_FindUser(t *testing.T) {
	remote := &fakeRemote{users: map[string]*moodle.User{
		"a@b.com": {ID: 1, Username: "ana", Email: "a@b.com"},
	}}
	s := NewDirectoryService(remote)

	u, err := s.FindUser(context.Background(), "ana", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	u, err = s.FindUser(context.Background(), "", " a@b.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = s.FindUser(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.FindUser(context.Background(), "", "")
	assert.ErrorIs(t, err, common.ErrorMissingParams)
}

func TestDirectory_EnrolledCourses(t *testing.T) {
	remote := &fakeRemote{
		siteInfo:    &moodle.SiteInfo{UserID: 2},
		userCourses: map[int64][]moodle.Course{2: {{ID: 7}}, 5: {{ID: 8}}},
	}
	s := NewDirectoryService(remote)

	own, err := s.EnrolledCourses(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), own[0].ID)

	other, err := s.EnrolledCourses(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(8), other[0].ID)

	none, err := s.EnrolledCourses(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDirectory_RemoteErrorsPropagate(t *testing.T) {
	s := NewDirectoryService(&fakeRemote{courseErr: common.ErrRemoteUnavailable})

	_, err := s.Courses(context.Background())
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)

	_, err = s.SiteInfo(context.Background())
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)

	_, err = s.EnrolledCourses(context.Background(), 0)
	assert.ErrorIs(t, err, common.ErrRemoteUnavailable)
}

func TestDirectory_CoursesNeverNil(t *testing.T) {
	courses, err := NewDirectoryService(&fakeRemote{}).Courses(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, courses)
}
