package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"microblog/internal/apperror"
	"microblog/internal/auth"
	"microblog/internal/service"
)

// TimelineHandler serves the two feeds and post creation.
type TimelineHandler struct {
	timeline *service.TimelineService
	posts    *service.PostService
	logger   *slog.Logger
}

// NewTimelineHandler creates a TimelineHandler.
func NewTimelineHandler(timeline *service.TimelineService, posts *service.PostService, logger *slog.Logger) *TimelineHandler {
	return &TimelineHandler{timeline: timeline, posts: posts, logger: logger}
}

// HandleFeed returns one page of the authenticated user's home timeline:
// their own posts merged with posts from everyone they follow.
//
// HTTP: GET /api/feed?page=N
func (h *TimelineHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	feed, err := h.timeline.Following(r.Context(), userID, pageParam(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// HandleExplore returns one page of the global timeline, every post from
// every user, newest first.
//
// HTTP: GET /api/explore?page=N
func (h *TimelineHandler) HandleExplore(w http.ResponseWriter, r *http.Request) {
	feed, err := h.timeline.Explore(r.Context(), pageParam(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// HandleCreatePost publishes a post as the authenticated user.
//
// HTTP: POST /api/posts
// BODY: {"body": "..."}
func (h *TimelineHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	post, err := h.posts.Create(r.Context(), userID, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}
