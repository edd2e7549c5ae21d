// Package app is the view controller: a session-gated state machine that
// decides which screen is active and loads that screen's data
// asynchronously.
//
// The shape of the machine:
//
//	Booting ──session resolves──▶ SignedOut(Login | Signup)
//	                          └──▶ SignedIn(Courses | CourseDetail)
//
// The active screen is derived from the session first and navigation
// second — an authentication transition always outranks whatever screen was
// showing. Each screen entry starts its data loads in the background and
// stamps them with a generation counter; a response whose generation no
// longer matches belongs to a screen the user already left and is dropped.
package app

import (
	"context"

	"github.com/ighodev/learnhub/internal/model"
)

// Stage is the top-level gate: which family of screens is reachable.
type Stage int

const (
	// StageBooting covers the window before the initial session resolves.
	// Nothing but a splash is renderable here.
	StageBooting Stage = iota
	StageSignedOut
	StageSignedIn
)

// AuthMode selects which of the two auth forms is showing while signed out.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeSignup
)

// Screen selects the active signed-in screen.
type Screen int

const (
	ScreenCourses Screen = iota
	ScreenCourseDetail
)

// State is the controller's navigational position. SelectedCourseID is
// non-empty only on the course detail screen.
type State struct {
	Stage            Stage
	AuthMode         AuthMode
	Screen           Screen
	SelectedCourseID string
}

// AuthFormModel renders the login/signup form. Err holds a user-facing
// message from the last failed submission, cleared on mode switch and on
// the next submit.
type AuthFormModel struct {
	Mode       AuthMode
	Submitting bool
	Err        string
}

// CourseListModel renders the course grid. Completed maps course ID to a
// badge; it may be empty when the completion fetch failed — the list still
// renders, just without badges.
type CourseListModel struct {
	Loading   bool
	Courses   []model.Course
	Completed map[string]bool
}

// CourseDetailModel renders a single course. NotFound is set only when the
// course definitively does not exist; transport failures leave Course nil
// without claiming the course is gone.
type CourseDetailModel struct {
	Loading   bool
	NotFound  bool
	Course    *model.Course
	Lessons   []model.Lesson
	Completed bool
	Saving    bool
}

// CourseBrowser is everything the controller needs from the catalog.
// CatalogService implements it in-process.
type CourseBrowser interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListLessons(ctx context.Context, courseID string) ([]model.Lesson, error)
	GetProgress(ctx context.Context, userID, courseID string) (*model.Progress, error)
	ListCompletedCourseIDs(ctx context.Context, userID string) ([]string, error)
	MarkComplete(ctx context.Context, userID, courseID string) (*model.Progress, error)
}
