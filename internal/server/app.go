// Package server wires configuration, storage, the Moodle client and the
// HTTP transport into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/moodlebridge/internal/logging"
	"github.com/dmitrijs2005/moodlebridge/internal/moodle"
	"github.com/dmitrijs2005/moodlebridge/internal/server/config"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodlebridge/internal/server/rest"
	"github.com/dmitrijs2005/moodlebridge/internal/server/services"
	"golang.org/x/sync/errgroup"
)

const defaultPurgeInterval = time.Hour

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	accounts      *services.AccountService
	http          *rest.Server
	purgeInterval time.Duration
}

func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	remote := moodle.NewClient(moodle.Config{URL: c.MoodleURL, Token: c.MoodleToken, Timeout: c.MoodleTimeout}, nil)

	accounts := services.NewAccountService(db, rm, c, logger.With("module", "accounts"))
	mirror := services.NewCourseMirror(db, rm, remote, logger.With("module", "course_mirror"))

	var archiver services.Archiver
	if c.ArchiveEnabled() {
		archiver = services.NewS3Archiver(c)
	}

	srv := rest.NewServer(c, logger, rest.Deps{
		Accounts:  accounts,
		Directory: services.NewDirectoryService(remote),
		Enroller:  services.NewEnrollmentService(db, rm, remote, mirror, accounts, logger.With("module", "enrollment")),
		Exporter:  services.NewExportService(db, rm, mirror, archiver, logger.With("module", "export")),
		Mocs:      services.NewMocService(db, rm),
	})

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		repomanager:   rm,
		accounts:      accounts,
		http:          srv,
		purgeInterval: defaultPurgeInterval,
	}, nil
}

// Run migrates the schema, then serves HTTP and purges expired sessions
// until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("db init error: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.http.Run(ctx)
	})
	g.Go(func() error {
		app.purgeSessions(ctx)
		return nil
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(app.purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.accounts.PurgeExpiredSessions(ctx); err != nil {
				app.logger.Warn(ctx, "session purge failed", "error", err)
			}
		}
	}
}
