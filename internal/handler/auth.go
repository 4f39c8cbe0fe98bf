package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"microblog/internal/apperror"
	"microblog/internal/auth"
	"microblog/internal/service"
)

// AuthHandler owns the account endpoints: registration, login/logout, the
// current-user profile, and the password-reset round-trip.
//
// Handlers parse JSON and write responses; every rule lives in the
// identity service. The one HTTP-only concern here is the session cookie.
type AuthHandler struct {
	identity *service.IdentityService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(identity *service.IdentityService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, tokens: tokens, logger: logger}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/register
// BODY: {"username": "...", "email": "...", "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.identity.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin authenticates and starts a session.
//
// HTTP: POST /api/login
// BODY: {"username": "...", "password": "..."}
//
// On success the session JWT is set as an HttpOnly cookie — out of reach
// of page scripts, sent automatically by the browser from then on.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.identity.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.GenerateSession(user.ID)
	if err != nil {
		h.logger.Error("failed to generate session token",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, user)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/logout
//
// The JWT itself stays valid until expiry (stateless tokens can't be
// revoked); logout just makes the browser forget it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user's own profile.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.identity.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		User:      user,
		AvatarURL: h.identity.AvatarURL(user, avatarSize),
	})
}

// HandleUpdateMe edits the authenticated user's profile.
//
// HTTP: PUT /api/me
// BODY: {"username": "...", "aboutMe": "..."} — empty username keeps the
// current one; aboutMe always overwrites.
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req struct {
		Username string `json:"username"`
		AboutMe  string `json:"aboutMe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.identity.UpdateProfile(r.Context(), userID, req.Username, req.AboutMe)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleResetRequest starts the password-reset flow.
//
// HTTP: POST /api/reset-password/request
// BODY: {"email": "..."}
//
// Always answers 202 whether or not the email is registered — the response
// must not be an oracle for which addresses have accounts. Delivery is
// fire-and-forget inside the service.
func (h *AuthHandler) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.identity.RequestPasswordReset(r.Context(), req.Email); err != nil {
		// Storage failure — not the "unknown email" case, which is nil.
		h.logger.Error("password reset request failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleResetPassword redeems a reset token.
//
// HTTP: POST /api/reset-password
// BODY: {"token": "...", "password": "..."}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.identity.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
