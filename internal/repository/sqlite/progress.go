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

// Compile-time check that *DB implements repository.ProgressRepository.
var _ repository.ProgressRepository = (*DB)(nil)

// Get retrieves the progress record for (userID, courseID).
// Returns apperror.ErrNotFound when the user has never touched the course —
// callers treat absence as "not completed".
func (db *DB) Get(ctx context.Context, userID, courseID string) (*model.Progress, error) {
	var p model.Progress
	var completedAt sql.NullTime

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, course_id, completed, completed_at, created_at
		 FROM user_progress
		 WHERE user_id = ? AND course_id = ?`,
		userID, courseID,
	).Scan(&p.ID, &p.UserID, &p.CourseID, &p.Completed, &completedAt, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("progress", courseID)
		}
		return nil, fmt.Errorf("sqlite: getting progress (user=%s course=%s): %w", userID, courseID, err)
	}

	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}

	return &p, nil
}

// ListCompletedCourseIDs returns the IDs of every course the user has marked
// complete. The controller turns this into the set behind the "Completed"
// badges on the course grid.
func (db *DB) ListCompletedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT course_id
		 FROM user_progress
		 WHERE user_id = ? AND completed = 1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing completed courses for user %s: %w", userID, err)
	}
	defer rows.Close()

	ids := make([]string, 0, 8)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning completed course id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating completed courses: %w", err)
	}

	return ids, nil
}

// MarkComplete upserts the (userID, courseID) progress record as completed.
//
// ON CONFLICT ... DO UPDATE is SQLite's native upsert: the first call
// INSERTs a fresh record, any later call UPDATEs the existing row in place,
// keeping its id and created_at. Overwriting completed_at on a repeat call
// is acceptable — completion is never reverted, so the observable end state
// is identical either way.
func (db *DB) MarkComplete(ctx context.Context, userID, courseID string, at time.Time) (*model.Progress, error) {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_progress (id, user_id, course_id, completed, completed_at, created_at)
		 VALUES (?, ?, ?, 1, ?, ?)
		 ON CONFLICT(user_id, course_id)
		 DO UPDATE SET completed = 1, completed_at = excluded.completed_at`,
		xid.New().String(), userID, courseID, at, at,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking course %s complete for user %s: %w", courseID, userID, err)
	}

	// Read the canonical row back — on the update path the stored id and
	// created_at are the original ones, not the values we just supplied.
	progress, err := db.Get(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading back progress after upsert: %w", err)
	}

	return progress, nil
}
