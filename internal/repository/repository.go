package repository

import (
	"context"
	"time"

	"github.com/ighodev/learnhub/internal/model"
)

// CourseRepository reads the course catalog. Courses and lessons are
// immutable from the application's perspective — there are no write methods.
type CourseRepository interface {
	// ListCourses returns every course, ordered ascending by creation time.
	ListCourses(ctx context.Context) ([]model.Course, error)
	// GetCourse returns apperror.ErrNotFound if no course has the given ID.
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	// ListLessons returns a course's lessons ordered ascending by order index.
	ListLessons(ctx context.Context, courseID string) ([]model.Lesson, error)
}

// ProgressRepository stores per-user course completion records, keyed by the
// composite (userID, courseID) — at most one record per user per course.
type ProgressRepository interface {
	// Get returns apperror.ErrNotFound when the user has no record for the
	// course; absence means "not completed".
	Get(ctx context.Context, userID, courseID string) (*model.Progress, error)
	// ListCompletedCourseIDs returns the IDs of every course the user has
	// completed.
	ListCompletedCourseIDs(ctx context.Context, userID string) ([]string, error)
	// MarkComplete upserts the (userID, courseID) record with completed=true
	// and the given completion time. Idempotent: a second call leaves the
	// record completed, overwriting the timestamp. Completion is never
	// reverted.
	MarkComplete(ctx context.Context, userID, courseID string, at time.Time) (*model.Progress, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	// Create inserts a new account. Returns apperror.ErrEmailInUse if the
	// email is already registered.
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	// UpsertGitHub inserts or updates an account keyed by its GitHub user ID.
	UpsertGitHub(ctx context.Context, user *model.User) error
}
