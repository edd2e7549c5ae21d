package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ighodev/learnhub/internal/apperror"
	"github.com/ighodev/learnhub/internal/model"
)

// mockCourseRepo serves fixed course/lesson data and can be forced to fail.
type mockCourseRepo struct {
	courses []model.Course
	lessons map[string][]model.Lesson
	failure error
}

func (m *mockCourseRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	return append([]model.Course(nil), m.courses...), nil
}

func (m *mockCourseRepo) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	for i := range m.courses {
		if m.courses[i].ID == id {
			course := m.courses[i]
			return &course, nil
		}
	}
	return nil, apperror.NotFound("course", id)
}

func (m *mockCourseRepo) ListLessons(ctx context.Context, courseID string) ([]model.Lesson, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	return append([]model.Lesson(nil), m.lessons[courseID]...), nil
}

// mockProgressRepo tracks completions in memory.
type mockProgressRepo struct {
	records map[string]*model.Progress // userID + "/" + courseID
	failure error
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{records: make(map[string]*model.Progress)}
}

func (m *mockProgressRepo) key(userID, courseID string) string {
	return userID + "/" + courseID
}

func (m *mockProgressRepo) Get(ctx context.Context, userID, courseID string) (*model.Progress, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	p, ok := m.records[m.key(userID, courseID)]
	if !ok {
		return nil, apperror.NotFound("progress", courseID)
	}
	copied := *p
	return &copied, nil
}

func (m *mockProgressRepo) ListCompletedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	var ids []string
	for _, p := range m.records {
		if p.UserID == userID && p.Completed {
			ids = append(ids, p.CourseID)
		}
	}
	return ids, nil
}

func (m *mockProgressRepo) MarkComplete(ctx context.Context, userID, courseID string, at time.Time) (*model.Progress, error) {
	if m.failure != nil {
		return nil, m.failure
	}
	key := m.key(userID, courseID)
	if existing, ok := m.records[key]; ok && existing.Completed {
		copied := *existing
		return &copied, nil
	}
	p := &model.Progress{
		ID:          "p-" + key,
		UserID:      userID,
		CourseID:    courseID,
		Completed:   true,
		CompletedAt: &at,
	}
	m.records[key] = p
	copied := *p
	return &copied, nil
}

func newTestCatalogService(courses *mockCourseRepo, progress *mockProgressRepo) *CatalogService {
	return NewCatalogService(courses, progress, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListCourses_DropsMalformedRecords(t *testing.T) {
	repo := &mockCourseRepo{
		courses: []model.Course{
			{ID: "c1", Title: "Good"},
			{Title: "No ID"},
			{ID: "c2", Title: "Also good"},
		},
	}
	svc := newTestCatalogService(repo, newMockProgressRepo())

	courses, err := svc.ListCourses(context.Background())
	if err != nil {
		t.Fatalf("ListCourses() error = %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2 (malformed record dropped)", len(courses))
	}
	for _, c := range courses {
		if c.ID == "" {
			t.Errorf("malformed course leaked through: %+v", c)
		}
	}
}

func TestListCourses_RepositoryFailureIsUnavailable(t *testing.T) {
	repo := &mockCourseRepo{failure: errors.New("db down")}
	svc := newTestCatalogService(repo, newMockProgressRepo())

	_, err := svc.ListCourses(context.Background())
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestGetCourse_NotFoundPassesThrough(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newTestCatalogService(repo, newMockProgressRepo())

	_, err := svc.GetCourse(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound (not ErrUnavailable)", err)
	}
}

func TestGetCourse_EmptyID(t *testing.T) {
	svc := newTestCatalogService(&mockCourseRepo{}, newMockProgressRepo())

	_, err := svc.GetCourse(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGetProgress_AbsentIsNotFound(t *testing.T) {
	svc := newTestCatalogService(&mockCourseRepo{}, newMockProgressRepo())

	_, err := svc.GetProgress(context.Background(), "u1", "c1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkComplete_ThenVisibleEverywhere(t *testing.T) {
	progress := newMockProgressRepo()
	svc := newTestCatalogService(&mockCourseRepo{}, progress)

	record, err := svc.MarkComplete(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}
	if !record.Completed || record.CompletedAt == nil {
		t.Errorf("returned record not completed: %+v", record)
	}

	got, err := svc.GetProgress(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("GetProgress() after completion error = %v", err)
	}
	if !got.Completed {
		t.Error("GetProgress() should see the completion")
	}

	ids, err := svc.ListCompletedCourseIDs(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListCompletedCourseIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "c1" {
		t.Errorf("completed IDs = %v, want [c1]", ids)
	}
}

func TestMarkComplete_Idempotent(t *testing.T) {
	progress := newMockProgressRepo()
	svc := newTestCatalogService(&mockCourseRepo{}, progress)

	first, err := svc.MarkComplete(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("first MarkComplete() error = %v", err)
	}
	second, err := svc.MarkComplete(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("second MarkComplete() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("repeat completion changed the record: %q vs %q", first.ID, second.ID)
	}
}

func TestMarkComplete_FailureIsUnavailable(t *testing.T) {
	progress := newMockProgressRepo()
	progress.failure = errors.New("db down")
	svc := newTestCatalogService(&mockCourseRepo{}, progress)

	_, err := svc.MarkComplete(context.Background(), "u1", "c1")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestMarkComplete_RequiresIDs(t *testing.T) {
	svc := newTestCatalogService(&mockCourseRepo{}, newMockProgressRepo())

	if _, err := svc.MarkComplete(context.Background(), "", "c1"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing user ID: err = %v, want ErrValidation", err)
	}
	if _, err := svc.MarkComplete(context.Background(), "u1", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing course ID: err = %v, want ErrValidation", err)
	}
}
