package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/relations"
	"github.com/cliptube/backend/internal/repositories"
)

// envelope is the uniform response body. Success mirrors statusCode < 400 so
// clients can branch without inspecting the code.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// errForbidden marks an authenticated request acting on a resource it does
// not own.
var errForbidden = errors.New("you do not have permission to perform this action")

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", message)
	}
}

// respondError translates domain errors into status codes in one place so
// every handler reports the same failure the same way.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidHandle),
		errors.Is(err, models.ErrInvalidEmail),
		errors.Is(err, models.ErrWeakPassword),
		errors.Is(err, relations.ErrUnknownKind),
		errors.Is(err, relations.ErrSelfSubscription):
		respondJSON(ctx, w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, auth.ErrStaleRefreshToken):
		respondJSON(ctx, w, http.StatusUnauthorized, auth.ErrStaleRefreshToken.Error(), nil)
	case errors.Is(err, auth.ErrInvalidToken):
		respondJSON(ctx, w, http.StatusUnauthorized, auth.ErrInvalidToken.Error(), nil)
	case errors.Is(err, errForbidden):
		respondJSON(ctx, w, http.StatusForbidden, errForbidden.Error(), nil)
	case errors.Is(err, repositories.ErrNotFound):
		respondJSON(ctx, w, http.StatusNotFound, "resource not found", nil)
	case errors.Is(err, repositories.ErrConflict):
		respondJSON(ctx, w, http.StatusConflict, "resource already exists", nil)
	default:
		logging.FromContext(ctx).Error("unhandled error", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, "internal server error", nil)
	}
}
