package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/ighodev/learnhub/internal/apperror"
	"github.com/ighodev/learnhub/internal/model"
	"github.com/ighodev/learnhub/internal/repository"
)

// Compile-time check that *DB implements repository.CourseRepository.
var _ repository.CourseRepository = (*DB)(nil)

// ListCourses returns the full catalog, oldest first. The ascending
// created_at order is part of the repository contract — the course grid
// presents courses in the order they were added.
func (db *DB) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, description, thumbnail_url, duration, level, created_at
		 FROM courses
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]model.Course, 0, 16)
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.ThumbnailURL,
			&c.Duration, &c.Level, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating courses: %w", err)
	}

	return courses, nil
}

// GetCourse retrieves a single course by ID.
// Returns apperror.ErrNotFound if it doesn't exist.
func (db *DB) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, thumbnail_url, duration, level, created_at
		 FROM courses
		 WHERE id = ?`,
		id,
	).Scan(
		&c.ID, &c.Title, &c.Description, &c.ThumbnailURL,
		&c.Duration, &c.Level, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("course", id)
		}
		return nil, fmt.Errorf("sqlite: getting course %s: %w", id, err)
	}

	return &c, nil
}

// InsertCourse adds a course to the catalog, generating an ID and creation
// time when the caller leaves them zero. Seeding and fixtures go through
// here rather than raw SQL.
func (db *DB) InsertCourse(ctx context.Context, c *model.Course) error {
	if c.ID == "" {
		c.ID = xid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO courses (id, title, description, thumbnail_url, duration, level, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, c.ThumbnailURL, c.Duration, c.Level, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting course %q: %w", c.Title, err)
	}

	return nil
}

// InsertLesson adds a lesson to a course. The course must exist — the
// foreign key rejects orphan lessons.
func (db *DB) InsertLesson(ctx context.Context, l *model.Lesson) error {
	if l.ID == "" {
		l.ID = xid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO lessons (id, course_id, title, content, order_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.CourseID, l.Title, l.Content, l.OrderIndex, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting lesson %q: %w", l.Title, err)
	}

	return nil
}

// ListLessons returns a course's lessons sorted ascending by order_index.
// Order index values need not be contiguous; ties break on created_at so
// the order is still deterministic.
func (db *DB) ListLessons(ctx context.Context, courseID string) ([]model.Lesson, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, course_id, title, content, order_index, created_at
		 FROM lessons
		 WHERE course_id = ?
		 ORDER BY order_index ASC, created_at ASC`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing lessons for course %s: %w", courseID, err)
	}
	defer rows.Close()

	lessons := make([]model.Lesson, 0, 8)
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(
			&l.ID, &l.CourseID, &l.Title, &l.Content, &l.OrderIndex, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating lessons: %w", err)
	}

	return lessons, nil
}
