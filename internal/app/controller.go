package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ighodev/learnhub/internal/apperror"
	"github.com/ighodev/learnhub/internal/model"
	"github.com/ighodev/learnhub/internal/session"
)

// Controller owns the screen state machine and the per-screen data loads.
//
// All mutation happens under one mutex; data loads run in goroutines and
// re-acquire it to apply their results. Every screen entry bumps a
// generation counter and cancels the previous screen's context, so a load
// started for a screen the user has left either aborts on the cancelled
// context or gets dropped at the generation check — stale data can never
// reach the current screen.
type Controller struct {
	sessions *session.Store
	catalog  CourseBrowser
	logger   *slog.Logger

	mu           sync.Mutex
	baseCtx      context.Context
	state        State
	authForm     AuthFormModel
	courseList   CourseListModel
	courseDetail CourseDetailModel
	userID       string
	gen          uint64
	cancelLoad   context.CancelFunc
	nextSubID    int
	listeners    map[int]func()

	unsubscribe func()
}

func NewController(sessions *session.Store, catalog CourseBrowser, logger *slog.Logger) *Controller {
	return &Controller{
		sessions:  sessions,
		catalog:   catalog,
		logger:    logger,
		state:     State{Stage: StageBooting},
		listeners: make(map[int]func()),
	}
}

// Start wires the controller to the session store. ctx is the lifetime of
// the whole controller; every data load derives from it. If the session has
// already resolved by the time Start runs, the controller catches up from
// the current snapshot instead of waiting for the next emission.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()

	c.unsubscribe = c.sessions.Subscribe(c.onSession)

	if cur := c.sessions.Current(); !cur.Loading {
		c.onSession(cur)
	}
}

// Close detaches from the session store and cancels any in-flight loads.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.mu.Lock()
	c.invalidateLocked()
	c.mu.Unlock()
}

// OnChange registers a listener invoked after every state change. The
// listener reads the new state through the snapshot getters. The returned
// function unregisters it.
func (c *Controller) OnChange(fn func()) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// State returns the current navigational position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AuthForm returns the login/signup form model.
func (c *Controller) AuthForm() AuthFormModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authForm
}

// CourseList returns the course grid model. The contained slice and map are
// replaced wholesale on every load, never mutated in place, so the snapshot
// is safe to read without further locking.
func (c *Controller) CourseList() CourseListModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.courseList
}

// CourseDetail returns the course detail model.
func (c *Controller) CourseDetail() CourseDetailModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.courseDetail
}

// onSession is the store listener. Session transitions outrank navigation:
// whatever screen is showing, an auth change resets the stage.
func (c *Controller) onSession(sess session.Session) {
	c.mu.Lock()
	if sess.Loading {
		c.mu.Unlock()
		return
	}

	switch {
	case sess.Authenticated && sess.UserID != c.userID:
		// Initial resolution to a signed-in user, a fresh sign-in, or a
		// switch to a different account. All land on the course list.
		c.userID = sess.UserID
		c.authForm = AuthFormModel{}
		c.enterCoursesLocked()

	case !sess.Authenticated && c.state.Stage != StageSignedOut:
		// Initial anonymous resolution or a sign-out. Screens and their
		// in-flight loads are discarded with the identity.
		c.invalidateLocked()
		c.userID = ""
		c.state = State{Stage: StageSignedOut, AuthMode: ModeLogin}
		c.authForm = AuthFormModel{Mode: ModeLogin}
		c.courseList = CourseListModel{}
		c.courseDetail = CourseDetailModel{}

	default:
		// Same user, same stage (e.g. a token refresh). Nothing to do.
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.notify()
}

// ShowLogin switches the signed-out form to login mode and clears any
// previous error.
func (c *Controller) ShowLogin() { c.setAuthMode(ModeLogin) }

// ShowSignup switches the signed-out form to signup mode.
func (c *Controller) ShowSignup() { c.setAuthMode(ModeSignup) }

func (c *Controller) setAuthMode(mode AuthMode) {
	c.mu.Lock()
	if c.state.Stage != StageSignedOut || c.authForm.Submitting {
		c.mu.Unlock()
		return
	}
	c.state.AuthMode = mode
	c.authForm = AuthFormModel{Mode: mode}
	c.mu.Unlock()

	c.notify()
}

// SubmitLogin submits the login form. The result arrives asynchronously:
// on success the session store emits and the controller transitions to the
// course list; on failure the form re-enables with a user-facing message.
func (c *Controller) SubmitLogin(email, password string) {
	c.submitAuth(email, password, c.sessions.SignIn)
}

// SubmitSignup submits the signup form.
func (c *Controller) SubmitSignup(email, password string) {
	c.submitAuth(email, password, c.sessions.SignUp)
}

func (c *Controller) submitAuth(email, password string, op func(context.Context, string, string) error) {
	c.mu.Lock()
	if c.state.Stage != StageSignedOut || c.authForm.Submitting {
		c.mu.Unlock()
		return
	}
	c.authForm.Submitting = true
	c.authForm.Err = ""
	ctx := c.baseCtx
	c.mu.Unlock()
	c.notify()

	go func() {
		err := op(ctx, email, password)

		c.mu.Lock()
		// A successful op already emitted and moved the stage on; in that
		// case the form is no longer showing and this only tidies flags.
		c.authForm.Submitting = false
		if err != nil {
			c.authForm.Err = userMessage(err)
		}
		c.mu.Unlock()
		c.notify()
	}()
}

// SelectCourse navigates from the course list to a course's detail screen
// and starts its loads.
func (c *Controller) SelectCourse(courseID string) {
	c.mu.Lock()
	if c.state.Stage != StageSignedIn || courseID == "" {
		c.mu.Unlock()
		return
	}
	c.state.Screen = ScreenCourseDetail
	c.state.SelectedCourseID = courseID
	gen, ctx := c.newScreenLocked()
	c.courseDetail = CourseDetailModel{Loading: true}
	userID := c.userID
	c.mu.Unlock()
	c.notify()

	go c.loadCourseDetail(ctx, gen, userID, courseID)
}

// Back returns from the course detail to the course list, abandoning any
// in-flight detail loads. The list is reloaded — a completion made on the
// detail screen must show as a badge immediately.
func (c *Controller) Back() {
	c.mu.Lock()
	if c.state.Stage != StageSignedIn || c.state.Screen != ScreenCourseDetail {
		c.mu.Unlock()
		return
	}
	c.enterCoursesLocked()
	c.mu.Unlock()

	c.notify()
}

// MarkComplete records the selected course as completed. The button state
// is response-confirmed: Completed flips only after the catalog reports the
// persisted record, and the control re-enables whether the call succeeded
// or not.
func (c *Controller) MarkComplete() {
	c.mu.Lock()
	if c.state.Stage != StageSignedIn || c.state.Screen != ScreenCourseDetail {
		c.mu.Unlock()
		return
	}
	if c.courseDetail.Loading || c.courseDetail.Saving || c.courseDetail.Completed {
		c.mu.Unlock()
		return
	}
	c.courseDetail.Saving = true
	gen := c.gen
	ctx := c.loadCtxLocked()
	userID, courseID := c.userID, c.state.SelectedCourseID
	c.mu.Unlock()
	c.notify()

	go func() {
		progress, err := c.catalog.MarkComplete(ctx, userID, courseID)

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.courseDetail.Saving = false
		if err != nil {
			c.logger.Error("mark complete failed",
				slog.String("courseID", courseID),
				slog.String("error", err.Error()),
			)
		} else if progress != nil {
			c.courseDetail.Completed = progress.Completed
		}
		c.mu.Unlock()
		c.notify()
	}()
}

// SignOut clears the session. The resulting store emission tears the
// signed-in screens down through onSession.
func (c *Controller) SignOut() {
	c.mu.Lock()
	ctx := c.baseCtx
	c.mu.Unlock()

	c.sessions.SignOut(ctx)
}

// enterCoursesLocked moves to the course list screen and kicks off its
// loads. Caller holds c.mu.
func (c *Controller) enterCoursesLocked() {
	c.state = State{Stage: StageSignedIn, Screen: ScreenCourses}
	gen, ctx := c.newScreenLocked()
	c.courseList = CourseListModel{Loading: true}
	c.courseDetail = CourseDetailModel{}

	go c.loadCourses(ctx, gen, c.userID)
}

// newScreenLocked retires the previous screen instance — cancelling its
// context and bumping the generation — and returns the new instance's
// stamp. Caller holds c.mu.
func (c *Controller) newScreenLocked() (uint64, context.Context) {
	c.invalidateLocked()
	c.gen++
	base := c.baseCtx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)
	c.cancelLoad = cancel
	return c.gen, ctx
}

func (c *Controller) invalidateLocked() {
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	c.gen++
}

// loadCtxLocked returns the current screen instance's context, for requests
// (like mark-complete) issued after the screen entry. Caller holds c.mu.
func (c *Controller) loadCtxLocked() context.Context {
	if c.baseCtx == nil {
		return context.Background()
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	prev := c.cancelLoad
	c.cancelLoad = func() {
		cancel()
		if prev != nil {
			prev()
		}
	}
	return ctx
}

// loadCourses fetches the catalog and the user's completed course IDs
// concurrently and applies both in one update. Either fetch failing
// degrades to its empty value — a dead progress store must not blank the
// whole catalog.
func (c *Controller) loadCourses(ctx context.Context, gen uint64, userID string) {
	var (
		courses   []model.Course
		completed []string
		wg        sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		result, err := c.catalog.ListCourses(ctx)
		if err != nil {
			c.logger.Error("loading courses failed", slog.String("error", err.Error()))
			return
		}
		courses = result
	}()
	go func() {
		defer wg.Done()
		result, err := c.catalog.ListCompletedCourseIDs(ctx, userID)
		if err != nil {
			c.logger.Error("loading completions failed", slog.String("error", err.Error()))
			return
		}
		completed = result
	}()
	wg.Wait()

	if courses == nil {
		courses = []model.Course{}
	}
	badges := make(map[string]bool, len(completed))
	for _, id := range completed {
		badges[id] = true
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.courseList = CourseListModel{Courses: courses, Completed: badges}
	c.mu.Unlock()
	c.notify()
}

// loadCourseDetail fetches the course, its lessons, and the user's
// completion record concurrently. Only a definitive not-found marks the
// course missing; any other failure is logged and leaves that slice of the
// model empty.
func (c *Controller) loadCourseDetail(ctx context.Context, gen uint64, userID, courseID string) {
	var (
		course    *model.Course
		lessons   []model.Lesson
		completed bool
		notFound  bool
		wg        sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		result, err := c.catalog.GetCourse(ctx, courseID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				notFound = true
				return
			}
			c.logger.Error("loading course failed",
				slog.String("courseID", courseID),
				slog.String("error", err.Error()),
			)
			return
		}
		course = result
	}()
	go func() {
		defer wg.Done()
		result, err := c.catalog.ListLessons(ctx, courseID)
		if err != nil {
			c.logger.Error("loading lessons failed",
				slog.String("courseID", courseID),
				slog.String("error", err.Error()),
			)
			return
		}
		lessons = result
	}()
	go func() {
		defer wg.Done()
		result, err := c.catalog.GetProgress(ctx, userID, courseID)
		if err != nil {
			// No record simply means never completed.
			if !errors.Is(err, apperror.ErrNotFound) {
				c.logger.Error("loading progress failed",
					slog.String("courseID", courseID),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		completed = result.Completed
	}()
	wg.Wait()

	if lessons == nil {
		lessons = []model.Lesson{}
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.courseDetail = CourseDetailModel{
		Course:    course,
		Lessons:   lessons,
		Completed: completed,
		NotFound:  notFound,
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// userMessage maps a domain error to the string the auth form shows.
// Unexpected errors get a generic line rather than leaking internals.
func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
