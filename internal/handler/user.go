package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"microblog/internal/apperror"
	"microblog/internal/auth"
	"microblog/internal/model"
	"microblog/internal/service"
)

// avatarSize is the pixel size requested from the avatar service in
// profile responses.
const avatarSize = 128

// UserHandler serves public profiles and the follow/unfollow actions.
type UserHandler struct {
	identity *service.IdentityService
	graph    *service.GraphService
	posts    *service.PostService
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(
	identity *service.IdentityService,
	graph *service.GraphService,
	posts *service.PostService,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{identity: identity, graph: graph, posts: posts, logger: logger}
}

// profileResponse is a public profile: the user plus graph cardinalities
// and, when the viewer is known, whether they follow this account.
// PasswordHash never appears (json:"-" on the model) and Email is the
// user's own business — it only shows on /api/me.
type profileResponse struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	AboutMe        string `json:"aboutMe"`
	LastSeen       string `json:"lastSeen"`
	AvatarURL      string `json:"avatarUrl"`
	FollowersCount int    `json:"followersCount"`
	FollowingCount int    `json:"followingCount"`
	Following      bool   `json:"following"` // does the viewer follow this user
}

// meResponse is the authenticated user's own view: full user record plus
// the computed avatar.
type meResponse struct {
	*model.User
	AvatarURL string `json:"avatarUrl"`
}

// HandleGetUser returns a public profile.
//
// HTTP: GET /api/users/{username}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	followers, err := h.graph.FollowersCount(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	following, err := h.graph.FollowingCount(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := profileResponse{
		ID:             user.ID,
		Username:       user.Username,
		AboutMe:        user.AboutMe,
		LastSeen:       user.LastSeen.Format("2006-01-02T15:04:05Z07:00"),
		AvatarURL:      h.identity.AvatarURL(user, avatarSize),
		FollowersCount: followers,
		FollowingCount: following,
	}

	if viewerID, ok := auth.UserIDFromContext(r.Context()); ok {
		isFollowing, err := h.graph.IsFollowing(r.Context(), viewerID, user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Following = isFollowing
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUserPosts returns one page of a user's posts.
//
// HTTP: GET /api/users/{username}/posts?page=N
func (h *UserHandler) HandleUserPosts(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.posts.ByAuthor(r.Context(), user.ID, pageParam(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HandleFollow makes the authenticated user follow {username}.
//
// HTTP: POST /api/users/{username}/follow
//
// The self-follow check lives here because the graph service treats a
// self-follow as a silent no-op — the HTTP surface is where "you cannot
// follow yourself" becomes a user-facing message.
func (h *UserHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	h.handleGraphAction(w, r, "follow", h.graph.Follow)
}

// HandleUnfollow removes the follow edge.
//
// HTTP: POST /api/users/{username}/unfollow
func (h *UserHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.handleGraphAction(w, r, "unfollow", h.graph.Unfollow)
}

// handleGraphAction is the shared body of follow and unfollow: resolve
// the actor from the session, the target from the path, reject
// self-follow, then apply the edge mutation.
func (h *UserHandler) handleGraphAction(
	w http.ResponseWriter,
	r *http.Request,
	verb string,
	action func(ctx context.Context, actorID, targetID string) error,
) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	target, err := h.identity.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	if target.ID == actorID {
		writeError(w, apperror.ValidationFailed("username", "you cannot "+verb+" yourself"))
		return
	}

	if err := action(r.Context(), actorID, target.ID); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info(verb,
		slog.String("actorID", actorID),
		slog.String("targetID", target.ID),
	)
	w.WriteHeader(http.StatusNoContent)
}

// pageParam reads ?page=N, defaulting to 1. Garbage values fall back to
// the first page instead of erroring — the services clamp again anyway.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
