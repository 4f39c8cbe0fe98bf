// Package service — social graph rules.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"microblog/internal/repository"
)

// GraphService enforces the rules of the follow relationship. It is a thin
// layer over the edge set, but it is the only place the self-follow rule
// lives — the store will record any pair it is handed.
type GraphService struct {
	follows repository.FollowRepository
	logger  *slog.Logger
}

// NewGraphService creates a GraphService.
func NewGraphService(follows repository.FollowRepository, logger *slog.Logger) *GraphService {
	return &GraphService{follows: follows, logger: logger}
}

// Follow adds the edge actor→target.
//
// Self-follows are silently dropped: no edge, no error. Callers that want
// to tell the user "you cannot follow yourself" compare the IDs themselves
// before calling — the core treats it as a no-op so that no code path can
// ever create the edge. Following someone already followed is likewise a
// successful no-op.
func (s *GraphService) Follow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return nil
	}

	if err := s.follows.Add(ctx, actorID, targetID); err != nil {
		s.logger.Error("failed to add follow",
			slog.String("actor", actorID),
			slog.String("target", targetID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("following user: %w", err)
	}

	s.logger.Info("user followed",
		slog.String("actor", actorID),
		slog.String("target", targetID),
	)
	return nil
}

// Unfollow removes the edge actor→target; a missing edge is a no-op.
func (s *GraphService) Unfollow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return nil
	}

	if err := s.follows.Remove(ctx, actorID, targetID); err != nil {
		return fmt.Errorf("unfollowing user: %w", err)
	}
	return nil
}

// IsFollowing reports whether actor follows target.
func (s *GraphService) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	return s.follows.Exists(ctx, actorID, targetID)
}

// FollowersCount returns the number of users following userID.
func (s *GraphService) FollowersCount(ctx context.Context, userID string) (int, error) {
	return s.follows.CountFollowers(ctx, userID)
}

// FollowingCount returns the number of users userID follows.
func (s *GraphService) FollowingCount(ctx context.Context, userID string) (int, error) {
	return s.follows.CountFollowing(ctx, userID)
}
