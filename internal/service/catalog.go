package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ighodev/learnhub/internal/app"
	"github.com/ighodev/learnhub/internal/apperror"
	"github.com/ighodev/learnhub/internal/model"
	"github.com/ighodev/learnhub/internal/repository"
)

// CatalogService is the application's single data-access surface for
// courses, lessons, and completion records. Every operation is a single
// attempt — failures are wrapped into the fetch-error taxonomy and left for
// the caller to log and degrade on; nothing here retries.
type CatalogService struct {
	courses  repository.CourseRepository
	progress repository.ProgressRepository
	logger   *slog.Logger
}

// CatalogService is what the view controller browses through.
var _ app.CourseBrowser = (*CatalogService)(nil)

func NewCatalogService(
	courses repository.CourseRepository,
	progress repository.ProgressRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		courses:  courses,
		progress: progress,
		logger:   logger,
	}
}

// ListCourses returns the catalog ordered ascending by creation time.
// Malformed records (no ID) are dropped and logged rather than propagated.
func (s *CatalogService) ListCourses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courses.ListCourses(ctx)
	if err != nil {
		return nil, apperror.Unavailable("course catalog", err)
	}

	valid := courses[:0]
	for _, c := range courses {
		if c.ID == "" {
			s.logger.Warn("dropping malformed course record", slog.String("title", c.Title))
			continue
		}
		valid = append(valid, c)
	}

	return valid, nil
}

// GetCourse returns a single course. ErrNotFound passes through untouched —
// "missing" and "unreachable" are different answers.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "course ID is required")
	}

	course, err := s.courses.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, apperror.Unavailable("course", err)
	}

	return course, nil
}

// ListLessons returns a course's lessons sorted ascending by order index.
func (s *CatalogService) ListLessons(ctx context.Context, courseID string) ([]model.Lesson, error) {
	if courseID == "" {
		return nil, apperror.ValidationFailed("courseId", "course ID is required")
	}

	lessons, err := s.courses.ListLessons(ctx, courseID)
	if err != nil {
		return nil, apperror.Unavailable("lessons", err)
	}

	valid := lessons[:0]
	for _, l := range lessons {
		if l.ID == "" {
			s.logger.Warn("dropping malformed lesson record",
				slog.String("courseID", courseID),
				slog.String("title", l.Title),
			)
			continue
		}
		valid = append(valid, l)
	}

	return valid, nil
}

// GetProgress returns the user's completion record for a course, or
// ErrNotFound when none exists (never completed).
func (s *CatalogService) GetProgress(ctx context.Context, userID, courseID string) (*model.Progress, error) {
	if userID == "" || courseID == "" {
		return nil, apperror.ValidationFailed("id", "user ID and course ID are required")
	}

	progress, err := s.progress.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, apperror.Unavailable("progress", err)
	}

	return progress, nil
}

// ListCompletedCourseIDs returns the IDs of every course the user has
// completed — the data behind the "Completed" badges on the course grid.
func (s *CatalogService) ListCompletedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	ids, err := s.progress.ListCompletedCourseIDs(ctx, userID)
	if err != nil {
		return nil, apperror.Unavailable("progress", err)
	}

	return ids, nil
}

// MarkComplete records that the user finished the course. The repository
// upsert makes this idempotent, and nothing in the application ever reverts
// a completion.
func (s *CatalogService) MarkComplete(ctx context.Context, userID, courseID string) (*model.Progress, error) {
	if userID == "" || courseID == "" {
		return nil, apperror.ValidationFailed("id", "user ID and course ID are required")
	}

	progress, err := s.progress.MarkComplete(ctx, userID, courseID, time.Now())
	if err != nil {
		s.logger.Error("mark complete failed",
			slog.String("userID", userID),
			slog.String("courseID", courseID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unavailable("progress", fmt.Errorf("marking course complete: %w", err))
	}

	s.logger.Info("course marked complete",
		slog.String("userID", userID),
		slog.String("courseID", courseID),
	)

	return progress, nil
}
