package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// userID value — no chance of another package shadowing it with a plain
// string key.
type contextKey string

const userIDKey contextKey = "userID"

// SessionCookie is the name of the HttpOnly cookie carrying the session
// token. HttpOnly keeps it out of reach of page JavaScript.
const SessionCookie = "session"

// TouchFunc is called with the authenticated user's ID once per request.
// The identity service uses it to keep users.last_seen fresh; failures are
// the hook's own problem and never block the request.
type TouchFunc func(ctx context.Context, userID string)

// RequireAuth enforces authentication on protected routes.
//
// It reads the session JWT from the cookie, validates it, stores the userID
// in the request context, and invokes the touch hook. A missing or invalid
// token stops the chain with 401.
func RequireAuth(tokens *TokenService, touch TouchFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			if touch != nil {
				touch(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the user ID in the context when a valid session
// cookie is present, and lets the request through either way. Used on
// public routes whose response is richer for signed-in viewers — the
// profile endpoint reports whether the viewer follows the account.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) on anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the session cookie and validates its token.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", err
	}

	return tokens.ValidateSession(cookie.Value)
}
