package db

import (
	"context"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/jackc/pgx/v5"
)

const courseColumns = `id, course_name, description, completion_criteria, template_id, created_at`

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CompletionCriteria, &c.TemplateID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCourseByID returns a course by id.
func (db *DB) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	course, err := scanCourse(db.Pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get course by ID", err)
	}
	return course, nil
}

// ListCourses returns all courses ordered by id.
func (db *DB) ListCourses(ctx context.Context) ([]*models.Course, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY id`)
	if err != nil {
		return nil, mapError("list courses", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, mapError("scan course", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate courses", err)
	}
	return courses, nil
}

// CreateCourse inserts a course and sets its generated id.
func (db *DB) CreateCourse(ctx context.Context, course *models.Course) error {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO courses (course_name, description, completion_criteria, template_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, course.Name, course.Description, course.CompletionCriteria, course.TemplateID, course.CreatedAt).Scan(&course.ID)
	if err != nil {
		return mapError("create course", err)
	}
	return nil
}
