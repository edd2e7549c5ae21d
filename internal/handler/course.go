package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ighodev/learnhub/internal/apperror"
	"github.com/ighodev/learnhub/internal/auth"
	"github.com/ighodev/learnhub/internal/model"
	"github.com/ighodev/learnhub/internal/service"
)

// CourseHandler serves the catalog API:
//
//	GET  /api/courses               → course list + the user's completed IDs
//	GET  /api/courses/{id}          → one course with lessons and progress
//	POST /api/courses/{id}/complete → mark the course completed
//
// All three sit behind RequireAuth — the catalog is only visible to
// signed-in users.
type CourseHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewCourseHandler(catalog *service.CatalogService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{catalog: catalog, logger: logger}
}

// courseListResponse bundles the grid data into one round trip. The two
// halves degrade independently: a dead progress store still returns the
// course list with an empty completedCourseIds.
type courseListResponse struct {
	Courses            []model.Course `json:"courses"`
	CompletedCourseIDs []string       `json:"completedCourseIds"`
}

type courseDetailResponse struct {
	Course    *model.Course  `json:"course"`
	Lessons   []model.Lesson `json:"lessons"`
	Completed bool           `json:"completed"`
}

// HandleList returns the full catalog plus the caller's completions.
func (h *CourseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if courses == nil {
		courses = []model.Course{}
	}

	completed, err := h.catalog.ListCompletedCourseIDs(r.Context(), userID)
	if err != nil {
		// Badges are decoration; the list is the payload.
		h.logger.Warn("listing completions failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		completed = nil
	}
	if completed == nil {
		completed = []string{}
	}

	writeJSON(w, http.StatusOK, courseListResponse{
		Courses:            courses,
		CompletedCourseIDs: completed,
	})
}

// HandleGet returns one course, its lessons, and whether the caller has
// completed it.
func (h *CourseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	courseID := chi.URLParam(r, "id")

	course, err := h.catalog.GetCourse(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}

	lessons, err := h.catalog.ListLessons(r.Context(), courseID)
	if err != nil {
		h.logger.Warn("listing lessons failed",
			slog.String("courseID", courseID),
			slog.String("error", err.Error()),
		)
		lessons = nil
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}

	completed := false
	progress, err := h.catalog.GetProgress(r.Context(), userID, courseID)
	switch {
	case err == nil:
		completed = progress.Completed
	case errors.Is(err, apperror.ErrNotFound):
		// Never completed. Normal.
	default:
		h.logger.Warn("loading progress failed",
			slog.String("courseID", courseID),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, courseDetailResponse{
		Course:    course,
		Lessons:   lessons,
		Completed: completed,
	})
}

// HandleMarkComplete records a completion and returns the persisted record.
// The upsert underneath makes repeated calls harmless.
func (h *CourseHandler) HandleMarkComplete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	courseID := chi.URLParam(r, "id")

	// The course must exist; completing a deleted course would mint an
	// orphan progress row.
	if _, err := h.catalog.GetCourse(r.Context(), courseID); err != nil {
		writeError(w, err)
		return
	}

	progress, err := h.catalog.MarkComplete(r.Context(), userID, courseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}
