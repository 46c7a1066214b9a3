package enrollments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moodlebridge/internal/dbx"
	"github.com/dmitrijs2005/moodlebridge/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID, courseID int64) (*models.Enrollment, bool, error) {
	insert :=
		`INSERT INTO enrollments (user_id, course_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, course_id) DO NOTHING
		 RETURNING id, enrolled_at
		 `

	e := &models.Enrollment{UserID: userID, CourseID: courseID}
	err := r.db.QueryRowContext(ctx, insert, userID, courseID).Scan(&e.ID, &e.EnrolledAt)
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	sel :=
		`SELECT id, enrolled_at FROM enrollments
		 WHERE user_id = $1 AND course_id = $2
		 `
	if err := r.db.QueryRowContext(ctx, sel, userID, courseID).Scan(&e.ID, &e.EnrolledAt); err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}
	return e, false, nil
}

func (r *PostgresRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.EnrollmentRow, error) {
	query :=
		`SELECT e.id, u.id, u.first_name, u.last_name, u.email, e.enrolled_at,
		        p.user_id IS NOT NULL, p.age, p.country, p.purpose
		 FROM enrollments e
		 JOIN users u ON u.id = e.user_id
		 LEFT JOIN profiles p ON p.user_id = u.id
		 WHERE e.course_id = $1
		 ORDER BY e.enrolled_at, e.id
		 `

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.EnrollmentRow
	for rows.Next() {
		var (
			row              models.EnrollmentRow
			age              sql.NullInt32
			country, purpose sql.NullString
		)
		if err := rows.Scan(&row.EnrollmentID, &row.UserID, &row.FirstName, &row.LastName, &row.Email,
			&row.EnrolledAt, &row.HasProfile, &age, &country, &purpose); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if age.Valid {
			v := int(age.Int32)
			row.Age = &v
		}
		if country.Valid {
			row.Country = &country.String
		}
		if purpose.Valid {
			row.Purpose = &purpose.String
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
