// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain values with no ORM
// proxies or lazy collections attached. Relationships (author, followers)
// are resolved by explicit repository queries, never by field access.
package model

import "time"

// Post represents a short status update authored by a user.
//
// Posts are immutable once created: there is no edit or delete. The ID is
// the SQLite rowid (INTEGER PRIMARY KEY), which increases monotonically —
// that property is what makes the (timestamp DESC, id DESC) feed ordering
// deterministic when two posts share a timestamp.
//
// Language is a best-effort ISO 639-1 tag ("en", "es", ...) detected from
// the body at creation time. It is empty when detection fails or is not
// confident; readers must treat empty as "unknown", not as an error.
type Post struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`      // 1–140 characters
	Timestamp time.Time `json:"timestamp"` // UTC, assigned server-side at creation
	UserID    string    `json:"userId"`
	Language  string    `json:"language,omitempty"`
}
