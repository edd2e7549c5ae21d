package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/ighodev/learnhub/internal/apperror"
	"github.com/ighodev/learnhub/internal/model"
	"github.com/ighodev/learnhub/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new email/password account. The email column is UNIQUE;
// a duplicate insert surfaces as apperror.ErrEmailInUse so the service layer
// doesn't have to parse driver error strings itself.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, github_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		nullableGitHubID(user.GitHubID),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// modernc.org/sqlite reports constraint violations only through the
		// error text; "UNIQUE constraint failed: users.email" is the
		// documented message shape for this schema.
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return apperror.EmailInUse(user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByEmail retrieves a user by email.
// Returns apperror.ErrNotFound if no account uses that email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, github_id, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return user, nil
}

// GetByID retrieves a user by their internal ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, github_id, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// UpsertGitHub inserts or updates an account keyed by GitHub user ID.
// First OAuth login INSERTs; later logins keep the existing internal ID and
// refresh the email in case the user changed it on GitHub.
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
			user.Email, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, github_id, created_at, updated_at)
		 VALUES (?, ?, '', ?, ?, ?)`,
		user.ID, user.Email, user.GitHubID, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

// scanUser reads one users row. github_id is nullable in the schema, so it
// goes through sql.NullInt64 before landing in the model.
func (db *DB) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var githubID sql.NullInt64

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &githubID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if githubID.Valid {
		u.GitHubID = githubID.Int64
	}
	return &u, nil
}

func nullableGitHubID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
