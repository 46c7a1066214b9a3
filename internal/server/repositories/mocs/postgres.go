package mocs

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

func (r *PostgresRepository) List(ctx context.Context) ([]models.Moc, error) {
	query :=
		`SELECT id, title, description, completed, created_at FROM mocs
		 ORDER BY created_at DESC, id DESC
		 `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Moc{}
	for rows.Next() {
		var m models.Moc
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Completed, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Moc) (*models.Moc, error) {
	query :=
		`INSERT INTO mocs (title, description, completed)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `
	if err := r.db.QueryRowContext(ctx, query, m.Title, m.Description, m.Completed).Scan(&m.ID, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Moc, error) {
	query :=
		`SELECT id, title, description, completed, created_at FROM mocs
		 WHERE id = $1
		 `
	m := &models.Moc{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Title, &m.Description, &m.Completed, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *models.Moc) error {
	query :=
		`UPDATE mocs SET title = $2, description = $3, completed = $4
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, m.ID, m.Title, m.Description, m.Completed)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return notFoundIfNone(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mocs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return notFoundIfNone(res)
}

func notFoundIfNone(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
