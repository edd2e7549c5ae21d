package model

import "time"

// Progress records whether a user has completed a course.
//
// Identity is the composite (UserID, CourseID) — at most one record per user
// per course, maintained with upsert semantics. Absence of a record means
// "not completed". Completed only ever transitions false → true; nothing in
// the application reverts it.
//
// WHY CompletedAt *time.Time?
// A nil pointer models the "never completed" case cleanly: it marshals to
// JSON null and scans from a NULL column without a sentinel zero time.
type Progress struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	CourseID    string     `json:"courseId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}
