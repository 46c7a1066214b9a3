// Package rest exposes the bridge over HTTP: the Moodle proxy endpoints,
// enrolment, local accounts, course reports and the MOC to-do list.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/logging"
	"github.com/dmitrijs2005/moodlebridge/internal/moodle"
	"github.com/dmitrijs2005/moodlebridge/internal/server/config"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// APIPrefix is where the browser client expects the API. The same routes
// are also served from the root.
const APIPrefix = "/api"

const shutdownTimeout = 10 * time.Second

type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, *models.User, error)
	Logout(ctx context.Context, token string)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type Directory interface {
	Courses(ctx context.Context) ([]moodle.Course, error)
	FindUser(ctx context.Context, username, email string) (*moodle.User, error)
	SiteInfo(ctx context.Context) (*moodle.SiteInfo, error)
	EnrolledCourses(ctx context.Context, remoteUserID int64) ([]moodle.Course, error)
}

type Enroller interface {
	Enroll(ctx context.Context, req services.EnrollRequest) (*services.EnrollResult, error)
	EnrollDirect(ctx context.Context, remoteUserID, courseID int64) (json.RawMessage, error)
}

type Exporter interface {
	CourseReport(ctx context.Context, moodleID int64) (*services.Report, error)
}

type MocStore interface {
	List(ctx context.Context) ([]models.Moc, error)
	Get(ctx context.Context, id int64) (*models.Moc, error)
	Create(ctx context.Context, in services.MocInput) (*models.Moc, error)
	Update(ctx context.Context, id int64, in services.MocInput) (*models.Moc, error)
	Delete(ctx context.Context, id int64) error
}

// Deps groups the services the handlers call.
type Deps struct {
	Accounts  Accounts
	Directory Directory
	Enroller  Enroller
	Exporter  Exporter
	Mocs      MocStore
}

type Server struct {
	address      string
	cookieSecure bool
	origins      []string
	rateLimit    RateLimitConfig
	logger       logging.Logger

	accounts  Accounts
	directory Directory
	enroller  Enroller
	exporter  Exporter
	mocs      MocStore
}

func NewServer(cfg *config.Config, l logging.Logger, d Deps) *Server {
	return &Server{
		address:      cfg.HTTPAddr,
		cookieSecure: cfg.CookieSecure,
		origins:      cfg.AllowedOrigins,
		rateLimit:    RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
		logger:       l.With("module", "http_server"),
		accounts:     d.Accounts,
		directory:    d.Directory,
		enroller:     d.Enroller,
		exporter:     d.Exporter,
		mocs:         d.Mocs,
	}
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, archiveURLHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.StripSlashes)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.apiRoutes()
	r.Mount(APIPrefix, api)
	r.Mount("/", api)
	return r
}

func (s *Server) apiRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loadSession)

	limited := RateLimiter(s.rateLimit)

	r.Get("/courses", s.handleCourses)
	r.Get("/user", s.handleFindUser)
	r.Get("/site-info", s.handleSiteInfo)
	r.Get("/enrolled-courses", s.handleEnrolledCourses)

	r.With(limited).Post("/enroll", s.handleEnroll)
	r.With(limited).Post("/register", s.handleRegister)
	r.With(limited).Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.With(s.requireAuth).Get("/me", s.handleMe)
	r.With(s.requireSuperuser).Get("/export/{course_id}", s.handleExport)

	r.Route("/mocs", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleListMocs)
		r.Post("/", s.handleCreateMoc)
		r.Get("/{id}", s.handleGetMoc)
		r.Put("/{id}", s.handleReplaceMoc)
		r.Patch("/{id}", s.handlePatchMoc)
		r.Delete("/{id}", s.handleDeleteMoc)
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
