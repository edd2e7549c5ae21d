package model

import "time"

// User represents a registered account.
//
// The primary sign-in path is email + password; the bcrypt hash lives in
// PasswordHash. Accounts created through the GitHub OAuth path instead carry
// the GitHub numeric user ID and an empty hash. Either way we generate our
// own internal string ID (xid) so primary keys never depend on a third
// party's numbering scheme.
//
// WHY `json:"-"` ON PasswordHash?
// The hash must never leave the server. Tagging the field with "-" makes
// encoding/json skip it entirely, so even a careless handler that marshals
// the whole struct cannot leak it.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"` // 0 for local email/password accounts
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
