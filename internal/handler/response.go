package handler

// Response helpers shared by every handler in this package. All error
// responses have the same JSON shape regardless of status code:
//
//	{"error": "conflict", "message": "username already taken"}
//
// writeError is the single place domain errors become HTTP status codes.
// The service layer only ever returns apperror values; nothing below this
// file knows that 409 exists.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"microblog/internal/apperror"
)

// ErrorResponse is the standard error body for all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable kind, e.g. "not_found"
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response. Headers and status must go out before
// the body — the first Write flushes them, after which changes are
// silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto an HTTP status and sends it.
//
// errors.Is walks the wrapped chain, so a service error like
// fmt.Errorf("registering: %w", apperror.Conflict(...)) still classifies
// correctly. Anything that isn't an AppError becomes an opaque 500 — raw
// error strings can carry SQL fragments or file paths and never belong in
// a response body.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
