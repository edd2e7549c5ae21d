package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/require"

	"github.com/ighodev/learnhub/internal/model"
)

// newTestDB opens an in-memory database with the full schema applied.
// Every test gets a fresh database — no shared state between tests.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err, "opening in-memory database")
	t.Cleanup(func() { db.Close() })
	return db
}

// insertCourse writes a course row directly, bypassing the repository API,
// so tests control created_at exactly.
func insertCourse(t *testing.T, db *DB, title string, createdAt time.Time) string {
	t.Helper()
	id := xid.New().String()
	_, err := db.conn.Exec(
		`INSERT INTO courses (id, title, description, thumbnail_url, duration, level, created_at)
		 VALUES (?, ?, '', '', '1 hour', 'Beginner', ?)`,
		id, title, createdAt,
	)
	require.NoError(t, err)
	return id
}

func insertLesson(t *testing.T, db *DB, courseID, title string, orderIndex int) string {
	t.Helper()
	id := xid.New().String()
	_, err := db.conn.Exec(
		`INSERT INTO lessons (id, course_id, title, content, order_index, created_at)
		 VALUES (?, ?, ?, '', ?, ?)`,
		id, courseID, title, orderIndex, time.Now(),
	)
	require.NoError(t, err)
	return id
}

func insertUser(t *testing.T, db *DB, email string) string {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(context.Background(), user))
	return user.ID
}
