// Command learnhub is a terminal client for the course catalog. It runs
// against the same SQLite database as the server, driving the services
// through the session store and view controller instead of HTTP.
//
// The session token is persisted to ~/.learnhub_session, so a signed-in
// user stays signed in across runs until the token expires.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ighodev/learnhub/internal/app"
	"github.com/ighodev/learnhub/internal/auth"
	"github.com/ighodev/learnhub/internal/repository/sqlite"
	"github.com/ighodev/learnhub/internal/service"
	"github.com/ighodev/learnhub/internal/session"
)

func main() {
	_ = godotenv.Load()

	// Logs go to a file so they don't interleave with the UI.
	logger := newLogger()

	dbPath := "data/learnhub.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating data directory: %v\n", err)
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required (try: openssl rand -hex 32)")
		os.Exit(1)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if os.Getenv("LEARNHUB_SEED") == "1" {
		if err := db.Seed(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "seeding catalog: %v\n", err)
			os.Exit(1)
		}
	}

	tokens, err := auth.NewTokenService(jwtSecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	authService := service.NewAuthService(db, tokens, auth.NewPasswordService(), logger)
	catalogService := service.NewCatalogService(db, db, logger)

	sessions := session.NewStore(authService, logger)
	controller := app.NewController(sessions, catalogService, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui := &cli{
		controller: controller,
		out:        os.Stdout,
		redraw:     make(chan struct{}, 1),
	}
	unsubscribe := controller.OnChange(ui.requestRedraw)
	defer unsubscribe()

	controller.Start(ctx)
	defer controller.Close()
	sessions.Start(ctx, loadToken())

	ui.run(ctx)

	saveToken(sessions.Token())
}

// cli renders the controller's state to the terminal and translates typed
// commands into intents. Redraws are coalesced through a 1-buffered
// channel: the controller may notify from any goroutine, the terminal is
// written from one.
type cli struct {
	controller *app.Controller
	out        *os.File
	redraw     chan struct{}
}

func (c *cli) requestRedraw() {
	select {
	case c.redraw <- struct{}{}:
	default:
	}
}

func (c *cli) run(ctx context.Context) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	c.render()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.redraw:
			c.render()
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := c.handle(ctx, strings.Fields(line)); quit {
				return
			}
		}
	}
}

func (c *cli) handle(ctx context.Context, args []string) (quit bool) {
	if len(args) == 0 {
		c.render()
		return false
	}

	cmd := args[0]
	if cmd == "quit" || cmd == "exit" {
		return true
	}

	switch c.controller.State().Stage {
	case app.StageSignedOut:
		switch {
		case cmd == "login" && len(args) == 3:
			c.controller.ShowLogin()
			c.controller.SubmitLogin(args[1], args[2])
		case cmd == "signup" && len(args) == 3:
			c.controller.ShowSignup()
			c.controller.SubmitSignup(args[1], args[2])
		default:
			fmt.Fprintln(c.out, "commands: login <email> <password> | signup <email> <password> | quit")
		}

	case app.StageSignedIn:
		switch {
		case cmd == "open" && len(args) == 2:
			c.openByIndex(args[1])
		case cmd == "back":
			c.controller.Back()
		case cmd == "done":
			c.controller.MarkComplete()
		case cmd == "logout":
			c.controller.SignOut()
		default:
			fmt.Fprintln(c.out, "commands: open <n> | back | done | logout | quit")
		}
	}
	return false
}

func (c *cli) openByIndex(arg string) {
	n, err := strconv.Atoi(arg)
	list := c.controller.CourseList()
	if err != nil || n < 1 || n > len(list.Courses) {
		fmt.Fprintf(c.out, "open expects a course number between 1 and %d\n", len(list.Courses))
		return
	}
	c.controller.SelectCourse(list.Courses[n-1].ID)
}

func (c *cli) render() {
	state := c.controller.State()

	switch state.Stage {
	case app.StageBooting:
		fmt.Fprintln(c.out, "Loading...")

	case app.StageSignedOut:
		form := c.controller.AuthForm()
		mode := "Log in"
		if form.Mode == app.ModeSignup {
			mode = "Sign up"
		}
		fmt.Fprintf(c.out, "\n== LearnHub — %s ==\n", mode)
		if form.Submitting {
			fmt.Fprintln(c.out, "Submitting...")
		}
		if form.Err != "" {
			fmt.Fprintf(c.out, "! %s\n", form.Err)
		}
		fmt.Fprint(c.out, "> ")

	case app.StageSignedIn:
		if state.Screen == app.ScreenCourseDetail {
			c.renderDetail()
		} else {
			c.renderList()
		}
	}
}

func (c *cli) renderList() {
	list := c.controller.CourseList()
	fmt.Fprintln(c.out, "\n== Courses ==")
	if list.Loading {
		fmt.Fprintln(c.out, "Loading...")
		return
	}
	if len(list.Courses) == 0 {
		fmt.Fprintln(c.out, "No courses available yet.")
	}
	for i, course := range list.Courses {
		badge := ""
		if list.Completed[course.ID] {
			badge = "  [Completed]"
		}
		fmt.Fprintf(c.out, "%2d. %s (%s, %s)%s\n", i+1, course.Title, course.Level, course.Duration, badge)
	}
	fmt.Fprint(c.out, "> ")
}

func (c *cli) renderDetail() {
	detail := c.controller.CourseDetail()
	if detail.Loading {
		fmt.Fprintln(c.out, "Loading...")
		return
	}
	if detail.NotFound || detail.Course == nil {
		fmt.Fprintln(c.out, "\nCourse not found")
		fmt.Fprint(c.out, "> ")
		return
	}

	fmt.Fprintf(c.out, "\n== %s ==\n%s\n", detail.Course.Title, detail.Course.Description)
	for _, lesson := range detail.Lessons {
		fmt.Fprintf(c.out, "  - %s\n", lesson.Title)
	}
	switch {
	case detail.Saving:
		fmt.Fprintln(c.out, "Saving...")
	case detail.Completed:
		fmt.Fprintln(c.out, "[Completed]")
	default:
		fmt.Fprintln(c.out, "(type 'done' to mark this course complete)")
	}
	fmt.Fprint(c.out, "> ")
}

func newLogger() *slog.Logger {
	logPath := filepath.Join(os.TempDir(), "learnhub-cli.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func tokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".learnhub_session")
}

func loadToken() string {
	path := tokenPath()
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) {
	path := tokenPath()
	if path == "" {
		return
	}
	if token == "" {
		os.Remove(path)
		return
	}
	// Owner-only: the file holds a live session credential.
	_ = os.WriteFile(path, []byte(token), 0o600)
}
