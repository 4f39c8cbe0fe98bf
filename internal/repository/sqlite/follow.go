package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"microblog/internal/repository"
)

// compile-time check that *FollowStore implements repository.FollowRepository
var _ repository.FollowRepository = (*FollowStore)(nil)

// FollowStore is the directed edge set of the social graph: one row per
// (follower, followed) pair, nothing else. No timestamps, no metadata —
// an edge either exists or it doesn't.
type FollowStore struct {
	conn *sql.DB
}

// Add creates the edge follower→followed.
//
// INSERT OR IGNORE makes this idempotent AND race-safe in one statement:
// if the edge already exists — including when two concurrent follow calls
// for the same pair race each other — the insert hits the composite primary
// key and is silently skipped. A duplicate follow is success, not an error.
//
// Self-follow filtering is the service's job; this store will happily
// record any pair it is given.
func (s *FollowStore) Add(ctx context.Context, followerID, followedID string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO followers (follower_id, followed_id) VALUES (?, ?)`,
		followerID, followedID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding follow %s -> %s: %w", followerID, followedID, err)
	}
	return nil
}

// Remove deletes the edge if present. Removing a missing edge is a no-op,
// not an error — DELETE with no matching rows succeeds.
func (s *FollowStore) Remove(ctx context.Context, followerID, followedID string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM followers WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing follow %s -> %s: %w", followerID, followedID, err)
	}
	return nil
}

// Exists reports whether follower→followed is in the edge set.
func (s *FollowStore) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM followers WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow %s -> %s: %w", followerID, followedID, err)
	}
	return n > 0, nil
}

// CountFollowers returns how many users follow userID (incoming edges).
func (s *FollowStore) CountFollowers(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM followers WHERE followed_id = ?`, userID)
}

// CountFollowing returns how many users userID follows (outgoing edges).
func (s *FollowStore) CountFollowing(ctx context.Context, userID string) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM followers WHERE follower_id = ?`, userID)
}

func (s *FollowStore) count(ctx context.Context, query, userID string) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting follows for user %s: %w", userID, err)
	}
	return n, nil
}
