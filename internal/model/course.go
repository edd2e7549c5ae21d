// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Course is a single entry in the catalog.
//
// Courses are owned by the backend and immutable from the application's
// point of view — the app only ever reads them. The `json:"..."` struct tags
// control how the encoding/json package serializes each field, so a Course
// marshals as {"id":"...","title":"...",...}.
type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     string    `json:"duration"` // free-form, e.g. "4 hours"
	Level        string    `json:"level"`    // e.g. "Beginner", "Intermediate"
	CreatedAt    time.Time `json:"createdAt"`
}

// Lesson is one unit of content inside a course.
//
// Lessons for a course are presented sorted ascending by OrderIndex.
// OrderIndex values need not be contiguous — only totally ordered.
type Lesson struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OrderIndex int       `json:"orderIndex"`
	CreatedAt  time.Time `json:"createdAt"`
}
