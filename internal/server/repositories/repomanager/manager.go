package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/moodlebridge/internal/dbx"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/courses"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/enrollments"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/mocs"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can compose them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Courses(db dbx.DBTX) courses.Repository
	Enrollments(db dbx.DBTX) enrollments.Repository
	Mocs(db dbx.DBTX) mocs.Repository
}
