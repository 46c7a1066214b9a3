package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/logging"
	"github.com/dmitrijs2005/moodlebridge/internal/moodle"
	"github.com/dmitrijs2005/moodlebridge/internal/server/config"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/services"
)

// ---- fakes ----

type fakeAccounts struct {
	sessions map[string]*models.User

	registered  []services.RegisterInput
	registerErr error

	loginSession *services.Session
	loginUser    *models.User
	loginErr     error

	loggedOut []string
}

func (f *fakeAccounts) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, in)
	return &models.User{ID: int64(len(f.registered)), Email: in.Email}, nil
}

func (f *fakeAccounts) Login(context.Context, string, string) (*services.Session, *models.User, error) {
	return f.loginSession, f.loginUser, f.loginErr
}

func (f *fakeAccounts) Logout(_ context.Context, token string) {
	f.loggedOut = append(f.loggedOut, token)
}

func (f *fakeAccounts) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := f.sessions[token]; ok {
		return u, nil
	}
	return nil, common.ErrInvalidToken
}

type fakeDirectory struct {
	courses    []moodle.Course
	coursesErr error

	user    *moodle.User
	userErr error
	lookups [][2]string

	info    *moodle.SiteInfo
	infoErr error

	enrolledFor []int64
	enrolled    []moodle.Course
	enrolledErr error
}

func (f *fakeDirectory) Courses(context.Context) ([]moodle.Course, error) {
	return f.courses, f.coursesErr
}

func (f *fakeDirectory) FindUser(_ context.Context, username, email string) (*moodle.User, error) {
	f.lookups = append(f.lookups, [2]string{username, email})
	if username == "" && email == "" {
		return nil, common.ErrorMissingParams
	}
	return f.user, f.userErr
}

func (f *fakeDirectory) SiteInfo(context.Context) (*moodle.SiteInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeDirectory) EnrolledCourses(_ context.Context, id int64) ([]moodle.Course, error) {
	f.enrolledFor = append(f.enrolledFor, id)
	return f.enrolled, f.enrolledErr
}

type fakeEnroller struct {
	requests []services.EnrollRequest
	result   *services.EnrollResult
	err      error

	direct    [][2]int64
	directAck json.RawMessage
	directErr error
}

func (f *fakeEnroller) Enroll(_ context.Context, req services.EnrollRequest) (*services.EnrollResult, error) {
	f.requests = append(f.requests, req)
	return f.result, f.err
}

func (f *fakeEnroller) EnrollDirect(_ context.Context, userID, courseID int64) (json.RawMessage, error) {
	f.direct = append(f.direct, [2]int64{userID, courseID})
	return f.directAck, f.directErr
}

type fakeExporter struct {
	report *services.Report
	err    error
	asked  []int64
}

func (f *fakeExporter) CourseReport(_ context.Context, id int64) (*services.Report, error) {
	f.asked = append(f.asked, id)
	return f.report, f.err
}

type fakeMocs struct {
	items  map[int64]models.Moc
	nextID int64
}

func newFakeMocs() *fakeMocs {
	return &fakeMocs{items: map[int64]models.Moc{}, nextID: 1}
}

func (f *fakeMocs) List(context.Context) ([]models.Moc, error) {
	out := []models.Moc{}
	for id := f.nextID - 1; id > 0; id-- {
		if m, ok := f.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMocs) Get(_ context.Context, id int64) (*models.Moc, error) {
	m, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &m, nil
}

func (f *fakeMocs) Create(_ context.Context, in services.MocInput) (*models.Moc, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, common.ErrorValidation
	}
	m := models.Moc{ID: f.nextID, Title: in.Title, Description: in.Description, Completed: in.Completed,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	f.items[m.ID] = m
	f.nextID++
	return &m, nil
}

func (f *fakeMocs) Update(_ context.Context, id int64, in services.MocInput) (*models.Moc, error) {
	m, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, common.ErrorValidation
	}
	m.Title, m.Description, m.Completed = in.Title, in.Description, in.Completed
	f.items[id] = m
	return &m, nil
}

func (f *fakeMocs) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

// ---- fixture ----

const (
	studentToken = "student-token"
	adminToken   = "admin-token"
)

type fixture struct {
	accounts  *fakeAccounts
	directory *fakeDirectory
	enroller  *fakeEnroller
	exporter  *fakeExporter
	mocs      *fakeMocs
	handler   http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:       "127.0.0.1:0",
		AllowedOrigins: []string{"http://localhost:5173"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		accounts: &fakeAccounts{sessions: map[string]*models.User{
			studentToken: {ID: 1, Email: "ana@b.com", FirstName: "Ana", LastName: "López"},
			adminToken:   {ID: 2, Email: "root@b.com", FirstName: "Root", IsSuperuser: true},
		}},
		directory: &fakeDirectory{},
		enroller:  &fakeEnroller{},
		exporter:  &fakeExporter{},
		mocs:      newFakeMocs(),
	}
	srv := NewServer(testConfig(), logging.Nop(), Deps{
		Accounts:  f.accounts,
		Directory: f.directory,
		Enroller:  f.enroller,
		Exporter:  f.exporter,
		Mocs:      f.mocs,
	})
	f.handler = srv.Routes()
	return f
}

// do sends a request; a non-empty token is attached as a Bearer header.
func (f *fixture) do(t *testing.T, method, target, contentType, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doJSON(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, method, target, "application/json", body, token)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}
