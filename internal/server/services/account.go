// Package services contains server-side business logic. AccountService
// handles local registration, login sessions, and authentication.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/cryptox"
	"github.com/dmitrijs2005/moodlebridge/internal/dbx"
	"github.com/dmitrijs2005/moodlebridge/internal/logging"
	"github.com/dmitrijs2005/moodlebridge/internal/server/auth"
	"github.com/dmitrijs2005/moodlebridge/internal/server/config"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Age      *int
	Country  string
	Purpose  string
}

// Session is what a successful login hands back to the transport layer.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// dummyHash keeps unknown-email logins as slow as wrong-password logins.
var dummyHash = cryptox.HashPassword("moodlebridge-dummy")

// newSessionID is a seam for tests.
var newSessionID = uuid.NewString

type AccountService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	jwtSecret       []byte
	sessionValidity time.Duration
	log             logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *AccountService {
	return &AccountService{
		db:              db,
		repomanager:     m,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidityDuration,
		log:             log,
	}
}

// Register creates a user and its profile in one transaction.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, false)
}

// CreateSuperuser registers an account with the superuser flag set.
func (s *AccountService) CreateSuperuser(ctx context.Context, email, name, password string) (*models.User, error) {
	return s.register(ctx, RegisterInput{Email: email, Name: name, Password: password}, true)
}

func (s *AccountService) register(ctx context.Context, in RegisterInput, superuser bool) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, common.ErrorMissingParams
	}
	if err := checkAge(in.Age); err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email); err == nil {
		return nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	first, last := common.SplitFullName(in.Name)
	user := &models.User{
		Email:        in.Email,
		FirstName:    first,
		LastName:     last,
		PasswordHash: cryptox.HashPassword(in.Password),
		IsSuperuser:  superuser,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.Profiles(tx).Create(ctx, &models.Profile{
			UserID:  user.ID,
			Age:     in.Age,
			Country: in.Country,
			Purpose: in.Purpose,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "superuser", superuser)
	return user, nil
}

// maxAge caps profile ages well inside the INTEGER column range.
const maxAge = 150

func checkAge(age *int) error {
	if age != nil && (*age < 0 || *age > maxAge) {
		return fmt.Errorf("%w: age must be between 0 and %d", common.ErrorValidation, maxAge)
	}
	return nil
}

// EnsureUser returns the local user with in.Email, registering it when
// absent. A missing password is replaced by a generated one. The bool
// reports whether the user was created.
func (s *AccountService) EnsureUser(ctx context.Context, in RegisterInput) (*models.User, bool, error) {
	users := s.repomanager.Users(s.db)

	u, err := users.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, err
	}

	if in.Password == "" {
		p, err := cryptox.GeneratePassword()
		if err != nil {
			return nil, false, err
		}
		in.Password = p
	}

	u, err = s.Register(ctx, in)
	if errors.Is(err, common.ErrorAlreadyExists) {
		u, err = users.GetByEmail(ctx, strings.TrimSpace(in.Email))
		return u, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// Login verifies the credentials and opens a session. Unknown email and
// wrong password both yield common.ErrorUnauthorized.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, *models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, nil, common.ErrorMissingParams
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.CheckPassword(dummyHash, password)
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, err
	}

	ok, err := cryptox.CheckPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, nil, common.ErrorUnauthorized
	}

	row, err := s.repomanager.Sessions(s.db).Create(ctx, newSessionID(), user.ID, s.sessionValidity)
	if err != nil {
		return nil, nil, err
	}

	token, err := auth.GenerateToken(user.ID, row.ID, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	s.log.Info(ctx, "login", "user_id", user.ID)
	return &Session{Token: token, ExpiresAt: row.ExpiresAt}, user, nil
}

// Logout closes the session named by token. It never fails; an unparsable
// token or missing session is simply ignored.
func (s *AccountService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, claims.SessionID); err != nil {
		s.log.Warn(ctx, "logout: delete session", "error", err)
	}
}

// Authenticate resolves token to its user. The session row must exist and
// be unexpired.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	session, err := s.repomanager.Sessions(s.db).Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, common.ErrInvalidToken
	}
	if session.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrSessionExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// PurgeExpiredSessions deletes session rows that are past their expiry.
func (s *AccountService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}
