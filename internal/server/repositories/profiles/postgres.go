package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moodlebridge/internal/common"
	"github.com/dmitrijs2005/moodlebridge/internal/dbx"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) error {
	query :=
		`INSERT INTO profiles (user_id, age, country, purpose)
		 VALUES ($1, $2, $3, $4)
		 `
	if _, err := r.db.ExecContext(ctx, query, p.UserID, p.Age, p.Country, p.Purpose); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID int64) (*models.Profile, error) {
	query :=
		`SELECT user_id, age, country, purpose FROM profiles
		 WHERE user_id = $1
		 `
	p := &models.Profile{}
	var age sql.NullInt32
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &age, &p.Country, &p.Purpose)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if age.Valid {
		v := int(age.Int32)
		p.Age = &v
	}
	return p, nil
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID int64) (*models.Profile, bool, error) {
	query :=
		`INSERT INTO profiles (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING
		 `
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	created := false
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	p, err := r.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return p, created, nil
}
