package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/logging"
	"github.com/dmitrijs2005/moodlebridge/internal/moodle"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/repomanager"
)

// Enrollment outcomes.
const (
	StatusEnrolled        = "enrolled"
	StatusAlreadyEnrolled = "already_enrolled"
)

const (
	msgEnrolled        = "Inscripción exitosa"
	msgAlreadyEnrolled = "Ya estás inscrito en este curso"
)

// EnrollRequest names the course and the actor. Actor, when set, wins over
// the inline registration fields.
type EnrollRequest struct {
	CourseID int64
	Actor    *models.User

	Name     string
	Email    string
	Password string
	Age      *int
	City     string
	Country  string
	Purpose  string
}

// EnrollResult reports the outcome. Verified is true when the remote
// directory listed the course among the user's courses after enrolling.
type EnrollResult struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	RemoteUserID int64  `json:"remote_user_id"`
	CourseID     int64  `json:"course_id"`
	Verified     bool   `json:"verified"`
}

// EnrollmentService sequences remote user resolution, course mirroring,
// the remote enrolment and the local mirror row.
//
// The remote call happens at most once per request and the local row is
// written only after the remote side acknowledged it. A failure after the
// remote ack leaves the remote enrolled and the mirror without a row; the
// next identical request repairs it.
type EnrollmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	remote      RemoteDirectory
	mirror      *CourseMirror
	accounts    *AccountService
	log         logging.Logger
}

func NewEnrollmentService(db *sql.DB, m repomanager.RepositoryManager, remote RemoteDirectory,
	mirror *CourseMirror, accounts *AccountService, log logging.Logger) *EnrollmentService {
	return &EnrollmentService{
		db:          db,
		repomanager: m,
		remote:      remote,
		mirror:      mirror,
		accounts:    accounts,
		log:         log,
	}
}

func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	if req.CourseID <= 0 {
		return nil, common.ErrorMissingParams
	}
	if req.Actor == nil && (strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "") {
		return nil, common.ErrorMissingParams
	}
	if err := checkAge(req.Age); err != nil {
		return nil, err
	}

	log := s.log.With("moodle_course_id", req.CourseID)

	newUser := s.remoteUserFields(ctx, req)
	remoteUser, err := s.resolveRemoteUser(ctx, log, newUser)
	if err != nil {
		return nil, err
	}

	course, err := s.mirror.Ensure(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	if _, err := s.remote.Enroll(ctx, remoteUser.ID, req.CourseID); err != nil {
		log.Error(ctx, "remote enrol failed", "remote_user_id", remoteUser.ID, "error", err)
		return nil, err
	}

	verified := s.verify(ctx, log, remoteUser.ID, req.CourseID)

	local := req.Actor
	if local == nil {
		local, _, err = s.accounts.EnsureUser(ctx, RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     req.Name,
			Age:      req.Age,
			Country:  req.Country,
			Purpose:  req.Purpose,
		})
		if err != nil {
			return nil, err
		}
	}

	_, created, err := s.repomanager.Enrollments(s.db).GetOrCreate(ctx, local.ID, course.ID)
	if err != nil {
		return nil, err
	}

	result := &EnrollResult{
		Status:       StatusEnrolled,
		Message:      msgEnrolled,
		RemoteUserID: remoteUser.ID,
		CourseID:     req.CourseID,
		Verified:     verified,
	}
	if !created {
		result.Status, result.Message = StatusAlreadyEnrolled, msgAlreadyEnrolled
		return result, nil
	}

	log.Info(ctx, "enrollment mirrored", "user_id", local.ID, "remote_user_id", remoteUser.ID, "verified", verified)
	return result, nil
}

// EnrollDirect enrols an existing remote user without touching the local
// mirror and returns the remote acknowledgement as is.
func (s *EnrollmentService) EnrollDirect(ctx context.Context, remoteUserID, courseID int64) (json.RawMessage, error) {
	if remoteUserID <= 0 || courseID <= 0 {
		return nil, common.ErrorMissingParams
	}
	return s.remote.Enroll(ctx, remoteUserID, courseID)
}

func (s *EnrollmentService) remoteUserFields(ctx context.Context, req EnrollRequest) moodle.NewUser {
	if req.Actor == nil {
		return moodle.NewUser{
			Name:     strings.TrimSpace(req.Name),
			Email:    strings.TrimSpace(req.Email),
			City:     strings.TrimSpace(req.City),
			Country:  req.Country,
			Age:      req.Age,
			Password: req.Password,
		}
	}

	nu := moodle.NewUser{Name: req.Actor.FullName(), Email: req.Actor.Email}
	if p, err := s.repomanager.Profiles(s.db).Get(ctx, req.Actor.ID); err == nil {
		nu.Country, nu.Age = p.Country, p.Age
	}
	return nu
}

func (s *EnrollmentService) resolveRemoteUser(ctx context.Context, log logging.Logger, nu moodle.NewUser) (*moodle.User, error) {
	u, err := s.remote.FindUserBy(ctx, "email", nu.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	u, err = s.remote.CreateUser(ctx, nu)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "remote user created", "remote_user_id", u.ID)
	return u, nil
}

// verify checks the remote enrolment took effect. Errors are logged and
// reported as unverified.
func (s *EnrollmentService) verify(ctx context.Context, log logging.Logger, remoteUserID, courseID int64) bool {
	courses, err := s.remote.UserCourses(ctx, remoteUserID)
	if err != nil {
		log.Warn(ctx, "enrolment verification failed", "remote_user_id", remoteUserID, "error", err)
		return false
	}
	for _, c := range courses {
		if c.ID == courseID {
			return true
		}
	}
	return false
}
