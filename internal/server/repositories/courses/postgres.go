package courses

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

// GetOrCreate relies on the unique moodle_id so concurrent callers end up
// with the same row.
func (r *PostgresRepository) GetOrCreate(ctx context.Context, moodleID int64, placeholder string) (*models.Course, bool, error) {
	query :=
		`INSERT INTO courses (moodle_id, name)
		 VALUES ($1, $2)
		 ON CONFLICT (moodle_id) DO NOTHING
		 RETURNING id
		 `

	c := &models.Course{MoodleID: moodleID, Name: placeholder}
	err := r.db.QueryRowContext(ctx, query, moodleID, placeholder).Scan(&c.ID)
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	existing, err := r.GetByMoodleID(ctx, moodleID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PostgresRepository) GetByMoodleID(ctx context.Context, moodleID int64) (*models.Course, error) {
	query :=
		`SELECT id, moodle_id, name, category, start_date, end_date, summary, image_url FROM courses
		 WHERE moodle_id = $1
		 `

	c := &models.Course{}
	var category, start, end sql.NullInt64
	var image sql.NullString
	err := r.db.QueryRowContext(ctx, query, moodleID).Scan(
		&c.ID, &c.MoodleID, &c.Name, &category, &start, &end, &c.Summary, &image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	c.Category = nullInt(category)
	c.StartDate = nullInt(start)
	c.EndDate = nullInt(end)
	if image.Valid {
		c.ImageURL = &image.String
	}
	return c, nil
}

func (r *PostgresRepository) UpdateDetails(ctx context.Context, c *models.Course) error {
	query :=
		`UPDATE courses
		 SET name = $2, category = $3, start_date = $4, end_date = $5, summary = $6, image_url = $7
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Category, c.StartDate, c.EndDate, c.Summary, c.ImageURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
