// Package service — timeline pagination.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"microblog/internal/model"
	"microblog/internal/repository"
)

// Timeline is one page of a feed.
//
// HasNext and HasPrev exist so clients can render next/previous links
// without the server ever running a COUNT over the posts table. They are
// derived cheaply: the query over-fetches one row beyond the page size
// (extra row present → next page exists) and HasPrev is just page > 1.
type Timeline struct {
	Posts   []model.Post `json:"posts"`
	Page    int          `json:"page"`
	PerPage int          `json:"perPage"`
	HasNext bool         `json:"hasNext"`
	HasPrev bool         `json:"hasPrev"`
}

// TimelineService composes the social graph and the post store into the
// two feeds: the personalized one and explore.
//
// perPage is injected at construction from config — it is the same fixed
// page size everywhere, never a per-request parameter, so clients can't
// request the whole table in one page.
type TimelineService struct {
	posts   repository.PostRepository
	perPage int
	logger  *slog.Logger
}

// NewTimelineService creates a TimelineService with the given page size.
func NewTimelineService(posts repository.PostRepository, perPage int, logger *slog.Logger) *TimelineService {
	return &TimelineService{posts: posts, perPage: perPage, logger: logger}
}

// Following returns one page of the user's personalized feed: posts from
// accounts the user follows plus the user's own, newest first. Recomputed
// from the live graph on every call.
func (s *TimelineService) Following(ctx context.Context, userID string, page int) (*Timeline, error) {
	return paginate(page, s.perPage, func(opts repository.ListOptions) ([]model.Post, error) {
		return s.posts.Feed(ctx, userID, opts)
	})
}

// Explore returns one page of the global feed — every post, no
// social-graph filter.
func (s *TimelineService) Explore(ctx context.Context, page int) (*Timeline, error) {
	return paginate(page, s.perPage, func(opts repository.ListOptions) ([]model.Post, error) {
		return s.posts.All(ctx, opts)
	})
}

// paginate runs a post query with the over-fetch-by-one trick and trims
// the result back down to the page size. Shared by every paged feed in
// this package so they all agree on what a page means.
func paginate(page, perPage int, query func(repository.ListOptions) ([]model.Post, error)) (*Timeline, error) {
	if page < 1 {
		page = 1
	}

	posts, err := query(repository.ListOptions{
		Limit:  perPage + 1,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("loading timeline page %d: %w", page, err)
	}

	hasNext := len(posts) > perPage
	if hasNext {
		posts = posts[:perPage]
	}

	return &Timeline{
		Posts:   posts,
		Page:    page,
		PerPage: perPage,
		HasNext: hasNext,
		HasPrev: page > 1,
	}, nil
}
