// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation, but
// services never import it directly — they receive these interfaces, which
// is what lets the service tests run on hand-written in-memory fakes.
package repository

import (
	"context"
	"time"

	"microblog/internal/model"
)

// ListOptions carries LIMIT/OFFSET pagination through to the store.
// Callers over-fetch by one row to learn whether a next page exists
// without running a COUNT query.
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	TouchLastSeen(ctx context.Context, id string, seen time.Time) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	ByAuthor(ctx context.Context, userID string, opts ListOptions) ([]model.Post, error)
	// Feed returns posts authored by userID or by anyone userID follows,
	// newest first. Recomputed on every call; nothing is materialized.
	Feed(ctx context.Context, userID string, opts ListOptions) ([]model.Post, error)
	// All returns every post, newest first (the explore feed).
	All(ctx context.Context, opts ListOptions) ([]model.Post, error)
}

// FollowRepository is the directed edge set of the social graph.
// Add and Remove are idempotent: re-adding an existing edge and removing a
// missing one are both successful no-ops.
type FollowRepository interface {
	Add(ctx context.Context, followerID, followedID string) error
	Remove(ctx context.Context, followerID, followedID string) error
	Exists(ctx context.Context, followerID, followedID string) (bool, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}
