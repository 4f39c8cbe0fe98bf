// Package service — post creation and per-author listing.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"microblog/internal/apperror"
	"microblog/internal/langdetect"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// MaxPostLength is the body limit in characters (runes, not bytes — a
// 140-character post in any script is legal).
const MaxPostLength = 140

// PostService handles the post lifecycle. There is no update or delete:
// posts are immutable once created.
type PostService struct {
	posts   repository.PostRepository
	perPage int
	logger  *slog.Logger
}

// NewPostService creates a PostService. perPage is the same injected page
// size the timeline uses, so an author page and a feed page line up.
func NewPostService(posts repository.PostRepository, perPage int, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, perPage: perPage, logger: logger}
}

// Create validates and stores a new post by authorID.
//
// Body bounds are [1,140] characters after trimming. Language detection is
// best-effort and can only ever decorate the post — a detection failure
// leaves the tag empty and the post still goes through. The timestamp is
// assigned by the store, server-side, in UTC.
func (s *PostService) Create(ctx context.Context, authorID, body string) (*model.Post, error) {
	body = strings.TrimSpace(body)

	if body == "" {
		return nil, apperror.ValidationFailed("body", "post body is required")
	}
	if utf8.RuneCountInString(body) > MaxPostLength {
		return nil, apperror.ValidationFailed("body",
			fmt.Sprintf("post body must be %d characters or less", MaxPostLength))
	}

	post := &model.Post{
		Body:     body,
		UserID:   authorID,
		Language: langdetect.Detect(body),
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("userID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("postID", post.ID),
		slog.String("userID", authorID),
		slog.String("language", post.Language),
	)

	return post, nil
}

// ByAuthor returns one page of a single user's posts, newest first,
// paginated exactly like the timeline feeds.
func (s *PostService) ByAuthor(ctx context.Context, userID string, page int) (*Timeline, error) {
	return paginate(page, s.perPage, func(opts repository.ListOptions) ([]model.Post, error) {
		return s.posts.ByAuthor(ctx, userID, opts)
	})
}
