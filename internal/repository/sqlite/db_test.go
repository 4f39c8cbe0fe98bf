package sqlite

import (
	"context"
	"testing"

	"microblog/internal/model"
)

// newTestDB returns a fresh in-memory database, migrated and ready.
// Each test gets its own — ":memory:" databases are independent per
// connection pool, so tests can't see each other's rows.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser inserts a user and fails the test on error.
func createTestUser(t *testing.T, users *UserStore, username string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefake",
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %q: %v", username, err)
	}
	return user
}

// createTestPost inserts a post and fails the test on error.
func createTestPost(t *testing.T, posts *PostStore, userID, body string) *model.Post {
	t.Helper()

	post := &model.Post{Body: body, UserID: userID}
	if err := posts.Create(context.Background(), post); err != nil {
		t.Fatalf("creating test post %q: %v", body, err)
	}
	return post
}
