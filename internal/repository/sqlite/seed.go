package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/ighodev/learnhub/internal/model"
)

// Seed populates an empty catalog with a handful of demo courses and
// lessons. It no-ops when any course already exists, so it's safe to call
// on every start.
func (db *DB) Seed(ctx context.Context) error {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return fmt.Errorf("sqlite: counting courses before seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	type seedLesson struct {
		title, content string
	}
	type seedCourse struct {
		title, description, thumbnail, duration, level string
		lessons                                        []seedLesson
	}

	catalog := []seedCourse{
		{
			title:       "Introduction to Go",
			description: "Start from zero and write your first Go programs: packages, types, slices, maps, and error handling.",
			thumbnail:   "https://images.pexels.com/photos/1181671/pexels-photo-1181671.jpeg",
			duration:    "4 hours",
			level:       "Beginner",
			lessons: []seedLesson{
				{"Setting up your workspace", "Install the toolchain, create a module, and run your first program."},
				{"Values, types, and functions", "Go's basic types, zero values, and how functions return errors."},
				{"Slices and maps", "The two workhorse collections and the append/len/cap mental model."},
			},
		},
		{
			title:       "Building Web APIs",
			description: "Design and ship a JSON API: routing, middleware, request validation, and clean error responses.",
			thumbnail:   "https://images.pexels.com/photos/270348/pexels-photo-270348.jpeg",
			duration:    "6 hours",
			level:       "Intermediate",
			lessons: []seedLesson{
				{"Routing and handlers", "Map URLs to handler functions and read path parameters."},
				{"Middleware", "Cross-cutting request logging, recovery, and authentication."},
				{"Error responses", "One consistent error shape for every endpoint."},
				{"Persistence", "Wiring a repository layer behind your handlers."},
			},
		},
		{
			title:       "Concurrency Patterns",
			description: "Goroutines, channels, cancellation, and the patterns that keep concurrent programs correct.",
			thumbnail:   "https://images.pexels.com/photos/574071/pexels-photo-574071.jpeg",
			duration:    "5 hours",
			level:       "Advanced",
			lessons: []seedLesson{
				{"Goroutines and WaitGroups", "Fan out work and join on completion."},
				{"Channels", "Communicating instead of sharing memory."},
				{"Context and cancellation", "Propagating deadlines and discarding stale work."},
			},
		},
	}

	// Space creation times a second apart so the catalog's created_at
	// ordering is deterministic.
	base := time.Now().Add(-time.Duration(len(catalog)) * time.Second)

	for i, sc := range catalog {
		createdAt := base.Add(time.Duration(i) * time.Second)

		course := &model.Course{
			ID:           xid.New().String(),
			Title:        sc.title,
			Description:  sc.description,
			ThumbnailURL: sc.thumbnail,
			Duration:     sc.duration,
			Level:        sc.level,
			CreatedAt:    createdAt,
		}
		if err := db.InsertCourse(ctx, course); err != nil {
			return fmt.Errorf("sqlite: seeding course %q: %w", sc.title, err)
		}

		for j, sl := range sc.lessons {
			lesson := &model.Lesson{
				CourseID:   course.ID,
				Title:      sl.title,
				Content:    sl.content,
				OrderIndex: (j + 1) * 10,
				CreatedAt:  createdAt,
			}
			if err := db.InsertLesson(ctx, lesson); err != nil {
				return fmt.Errorf("sqlite: seeding lesson %q: %w", sl.title, err)
			}
		}
	}

	return nil
}
