// Package admin implements the operator command line: schema migration and
// superuser creation against the configured database.
package admin

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/flagx"
	"github.com/dmitrijs2005/moodlebridge/internal/logging"
	"github.com/dmitrijs2005/moodlebridge/internal/server/config"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
	"github.com/dmitrijs2005/moodlebridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodlebridge/internal/server/services"
	"github.com/spf13/cobra"
)

type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
}

type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, email, name, password string) (*models.User, error)
}

// Env is what the commands operate on. Close releases it.
type Env struct {
	DB       *sql.DB
	Migrator Migrator
	Accounts SuperuserCreator
	Close    func() error
}

// Opener builds an Env for cfg.
type Opener func(ctx context.Context, cfg *config.Config) (*Env, error)

// loadConfig is a seam for tests.
var loadConfig = config.LoadBaseConfig

// OpenPostgres connects to cfg.DatabaseDSN.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*Env, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	logger, err := logging.New(cfg.LogBackend)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	return &Env{
		DB:       db,
		Migrator: rm,
		Accounts: services.NewAccountService(db, rm, cfg, logger),
		Close:    db.Close,
	}, nil
}

// Execute runs the admin CLI and returns the process exit code.
func Execute() int {
	root := NewRootCmd(OpenPostgres, os.Stdin, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func NewRootCmd(open Opener, in io.Reader, out io.Writer) *cobra.Command {
	var (
		configPath string
		dsn        string
		cfg        *config.Config
	)

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Moodle bridge administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := os.Setenv(flagx.ConfigEnvVar, configPath); err != nil {
					return err
				}
			}
			c, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cmd.Flags().Changed("dsn") {
				c.DatabaseDSN = dsn
			}
			cfg = c
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to JSON config file")
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (overrides config)")

	withEnv := func(cmd *cobra.Command, fn func(*Env) error) error {
		env, err := open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = env.Close() }()
		return fn(env)
	}

	root.AddCommand(newMigrateCmd(withEnv), newCreateSuperuserCmd(withEnv))
	return root
}

func newMigrateCmd(withEnv func(*cobra.Command, func(*Env) error) error) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(env *Env) error {
				if err := env.Migrator.RunMigrations(cmd.Context(), env.DB); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

func newCreateSuperuserCmd(withEnv func(*cobra.Command, func(*Env) error) error) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a local account with superuser rights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			w := cmd.OutOrStdout()

			if name == "" {
				n, err := GetSimpleText(reader, "Name", w)
				if err != nil {
					return err
				}
				name = n
			}

			pw, err := ConfirmPassword(reader, int(os.Stdin.Fd()), w)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			return withEnv(cmd, func(env *Env) error {
				u, err := env.Accounts.CreateSuperuser(cmd.Context(), email, name, string(pw))
				if err != nil {
					return fmt.Errorf("create superuser %s: %w", email, err)
				}
				_, _ = fmt.Fprintf(w, "Superuser %s created (id %d)\n", u.Email, u.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
