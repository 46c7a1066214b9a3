package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/dbx"
	"github.com/dmitrijs2005/moodlebridge/internal/moodle"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/courses"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/enrollments"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/mocs"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/users"
)

// --- in-memory repositories ---

type store struct {
	mu sync.Mutex

	users    map[int64]*models.User
	profiles map[int64]*models.Profile
	sessions map[string]*models.Session
	courses  map[int64]*models.Course // by moodle id
	enrolls  map[[2]int64]*models.Enrollment
	mocs     map[int64]*models.Moc
	nextID   int64

	profileCreateErr error
	courseUpdateErr  error
	enrollErr        error
}

func newStore() *store {
	return &store{
		users:    map[int64]*models.User{},
		profiles: map[int64]*models.Profile{},
		sessions: map[string]*models.Session{},
		courses:  map[int64]*models.Course{},
		enrolls:  map[[2]int64]*models.Enrollment{},
		mocs:     map[int64]*models.Moc{},
	}
}

func (s *store) id() int64 { s.nextID++; return s.nextID }

type memUsers struct{ *store }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID, u.CreatedAt = r.id(), time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if x.Email == email {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x, ok := r.users[id]; ok {
		cp := *x
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

type memProfiles struct{ *store }

func (r memProfiles) Create(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profileCreateErr != nil {
		return r.profileCreateErr
	}
	if _, ok := r.profiles[p.UserID]; ok {
		return common.ErrorAlreadyExists
	}
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r memProfiles) Get(_ context.Context, userID int64) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (r memProfiles) GetOrCreate(ctx context.Context, userID int64) (*models.Profile, bool, error) {
	r.mu.Lock()
	_, ok := r.profiles[userID]
	if !ok {
		r.profiles[userID] = &models.Profile{UserID: userID}
	}
	r.mu.Unlock()
	p, err := r.Get(ctx, userID)
	return p, !ok, err
}

type memSessions struct{ *store }

func (r memSessions) Create(_ context.Context, id string, userID int64, validity time.Duration) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &models.Session{ID: id, UserID: userID, ExpiresAt: time.Now().Add(validity), CreatedAt: time.Now()}
	r.sessions[id] = s
	cp := *s
	return &cp, nil
}

func (r memSessions) Find(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (r memSessions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

type memCourses struct{ *store }

func (r memCourses) GetOrCreate(_ context.Context, moodleID int64, placeholder string) (*models.Course, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.courses[moodleID]; ok {
		cp := *c
		return &cp, false, nil
	}
	c := &models.Course{ID: r.id(), MoodleID: moodleID, Name: placeholder}
	r.courses[moodleID] = c
	cp := *c
	return &cp, true, nil
}

func (r memCourses) GetByMoodleID(_ context.Context, moodleID int64) (*models.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.courses[moodleID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (r memCourses) UpdateDetails(_ context.Context, c *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.courseUpdateErr != nil {
		return r.courseUpdateErr
	}
	cp := *c
	r.courses[c.MoodleID] = &cp
	return nil
}

type memEnrollments struct{ *store }

func (r memEnrollments) GetOrCreate(_ context.Context, userID, courseID int64) (*models.Enrollment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enrollErr != nil {
		return nil, false, r.enrollErr
	}
	key := [2]int64{userID, courseID}
	if e, ok := r.enrolls[key]; ok {
		cp := *e
		return &cp, false, nil
	}
	e := &models.Enrollment{ID: r.id(), UserID: userID, CourseID: courseID, EnrolledAt: time.Now()}
	r.enrolls[key] = e
	cp := *e
	return &cp, true, nil
}

func (r memEnrollments) ListByCourse(_ context.Context, courseID int64) ([]models.EnrollmentRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.EnrollmentRow
	for key, e := range r.enrolls {
		if key[1] != courseID {
			continue
		}
		u := r.users[key[0]]
		row := models.EnrollmentRow{
			EnrollmentID: e.ID, UserID: u.ID, FirstName: u.FirstName, LastName: u.LastName,
			Email: u.Email, EnrolledAt: e.EnrolledAt,
		}
		if p, ok := r.profiles[u.ID]; ok {
			row.HasProfile = true
			row.Age = p.Age
			country, purpose := p.Country, p.Purpose
			row.Country, row.Purpose = &country, &purpose
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentID < out[j].EnrollmentID })
	return out, nil
}

type memMocs struct{ *store }

func (r memMocs) List(_ context.Context) ([]models.Moc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Moc{}
	for _, m := range r.mocs {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memMocs) Create(_ context.Context, m *models.Moc) (*models.Moc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID, m.CreatedAt = r.id(), time.Now()
	cp := *m
	r.mocs[m.ID] = &cp
	return m, nil
}

func (r memMocs) Get(_ context.Context, id int64) (*models.Moc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mocs[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (r memMocs) Update(_ context.Context, m *models.Moc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mocs[m.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *m
	r.mocs[m.ID] = &cp
	return nil
}

func (r memMocs) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mocs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.mocs, id)
	return nil
}

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.s} }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository        { return memProfiles{m.s} }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return memSessions{m.s} }
func (m *fakeRepoManager) Courses(dbx.DBTX) courses.Repository          { return memCourses{m.s} }
func (m *fakeRepoManager) Enrollments(dbx.DBTX) enrollments.Repository  { return memEnrollments{m.s} }
func (m *fakeRepoManager) Mocs(dbx.DBTX) mocs.Repository                { return memMocs{m.s} }

// --- remote directory ---

type fakeRemote struct {
	mu sync.Mutex

	courses        []moodle.Course
	courseByID     map[int64]*moodle.Course
	courseErr      error
	users          map[string]*moodle.User // by email
	findErr        error
	createOut      *moodle.User
	createErr      error
	enrollErr      error
	siteInfo       *moodle.SiteInfo
	userCourses    map[int64][]moodle.Course
	userCoursesErr error

	created  []moodle.NewUser
	enrolled [][2]int64
	calls    int
}

func (f *fakeRemote) Courses(context.Context) ([]moodle.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.courses, f.courseErr
}

func (f *fakeRemote) CourseByID(_ context.Context, id int64) (*moodle.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.courseErr != nil {
		return nil, f.courseErr
	}
	if c, ok := f.courseByID[id]; ok {
		return c, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRemote) FindUserBy(_ context.Context, field, value string) (*moodle.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if (field == "email" && u.Email == value) || (field == "username" && u.Username == value) {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRemote) CreateUser(_ context.Context, nu moodle.NewUser) (*moodle.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.created = append(f.created, nu)
	if f.createErr != nil {
		return nil, f.createErr
	}
	u := *f.createOut
	u.Email = nu.Email
	if f.users == nil {
		f.users = map[string]*moodle.User{}
	}
	f.users[nu.Email] = &u
	return &u, nil
}

func (f *fakeRemote) Enroll(_ context.Context, userID, courseID int64) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.enrollErr != nil {
		return nil, f.enrollErr
	}
	f.enrolled = append(f.enrolled, [2]int64{userID, courseID})
	if f.userCourses == nil {
		f.userCourses = map[int64][]moodle.Course{}
	}
	f.userCourses[userID] = append(f.userCourses[userID], moodle.Course{ID: courseID})
	return json.RawMessage("null"), nil
}

func (f *fakeRemote) SiteInfo(context.Context) (*moodle.SiteInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.siteInfo == nil {
		return nil, common.ErrRemoteUnavailable
	}
	return f.siteInfo, nil
}

func (f *fakeRemote) UserCourses(_ context.Context, userID int64) ([]moodle.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.userCoursesErr != nil {
		return nil, f.userCoursesErr
	}
	return f.userCourses[userID], nil
}

// --- helpers ---

// newTxDB returns a sqlmock DB that accepts any number of committed
// transactions.
func newTxDB(t *testing.T, txs int) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	for i := 0; i < txs; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	t.Cleanup(func() { db.Close() })
	return db
}
