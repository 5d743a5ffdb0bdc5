package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

var (
	ErrValidation         = errors.New("invalid request")
	ErrDuplicateIdentity  = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotFound           = errors.New("not found")
	ErrJobRunning         = errors.New("a close-price job is already running")
)

// invalid reports a malformed or missing field.
func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// duplicate names what collided, e.g. duplicate("Email") -> "Email already exists".
func duplicate(what string) error {
	return fmt.Errorf("%s %w", what, ErrDuplicateIdentity)
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// APIError represents a structured API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a structured error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
	})
}

// writeMessage writes the {message} body used by mutating endpoints.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// fail maps err onto the error taxonomy. Anything unrecognised is logged and
// answered with an opaque 500.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrDuplicateIdentity):
		writeError(w, http.StatusBadRequest, "DUPLICATE_IDENTITY", err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "Session expired")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrJobRunning):
		writeError(w, http.StatusConflict, "JOB_RUNNING", err.Error())
	default:
		a.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
