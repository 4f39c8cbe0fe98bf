// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// The internal ID is a string (xid) generated by the repository at creation
// time; it is immutable for the lifetime of the account.
//
// WHY PasswordHash WITH json:"-"?
// The bcrypt hash must never leave the server. Tagging the field with "-"
// means encoding/json skips it entirely, so no handler can leak it by
// accident when serializing a User.
//
// Username and email are unique across all users. Uniqueness is checked with
// case-sensitive exact matches — "Alice" and "alice" are two different
// accounts. That mirrors the behaviour the service has always had; changing
// it would orphan existing accounts that differ only in case.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AboutMe      string    `json:"aboutMe"`  // Short bio, at most 140 characters
	LastSeen     time.Time `json:"lastSeen"` // UTC, touched once per authenticated request
	CreatedAt    time.Time `json:"createdAt"`
}
