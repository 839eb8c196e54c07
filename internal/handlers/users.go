package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// UserHandler implements account profile and channel endpoints.
type UserHandler struct {
	Users   UserStore
	Media   media.Host
	Janitor AssetJanitor
	History WatchHistoryStore
}

// Current handles GET /api/v1/users/me.
func (h UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "current user", accountResponse(user))
}

// UpdateAccount handles PATCH /api/v1/users/me. Only the display name and
// email are updatable here; images go through their own endpoints.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if name := strings.TrimSpace(req.DisplayName); name != "" {
		user.DisplayName = name
	}
	if email := strings.TrimSpace(strings.ToLower(req.Email)); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			respondError(ctx, w, models.ErrInvalidEmail)
			return
		}
		user.Email = email
	}

	if err := h.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondJSON(ctx, w, http.StatusConflict, "an account with that email already exists", nil)
			return
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "account updated", accountResponse(user))
}

// UpdateAvatar handles PATCH /api/v1/users/me/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar")
}

// UpdateCover handles PATCH /api/v1/users/me/cover.
func (h UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage")
}

// updateImage replaces one of the account images. The new asset is uploaded
// before the account row changes; the replaced asset is handed to the janitor
// so the request does not wait on remote deletion.
func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if h.Media == nil {
		respondError(ctx, w, media.ErrHostUnavailable)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, field+" file is required", nil)
		return
	}
	defer file.Close()

	asset, err := h.Media.Upload(ctx, uploadName(user.ID, field, header), file)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var previous string
	switch field {
	case "avatar":
		previous = user.Avatar
		user.Avatar = asset.URL
	case "coverImage":
		previous = user.CoverImage
		user.CoverImage = asset.URL
	}

	if err := h.Users.Update(ctx, user); err != nil {
		respondError(ctx, w, err)
		return
	}

	if previous != "" && h.Janitor != nil {
		if err := h.Janitor.Enqueue(ctx, previous, media.KindImage); err != nil {
			logging.FromContext(ctx).Warn("enqueue replaced image cleanup", "ref", previous, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, field+" updated", accountResponse(user))
}

// Channel handles GET /api/v1/channels/{handle}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	handle := r.PathValue("handle")
	if handle == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "channel handle is required", nil)
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, handle, viewer.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "channel profile", profile)
}

// WatchHistory handles GET /api/v1/users/me/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	history, err := h.History.List(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "watch history", history)
}

// accountResponse is the owner's view of their own account. It includes the
// email but never the credential fields.
func accountResponse(user models.User) map[string]any {
	return map[string]any{
		"id":          user.ID,
		"handle":      user.Handle,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"avatar":      user.Avatar,
		"coverImage":  user.CoverImage,
		"createdAt":   user.CreatedAt,
	}
}

type updateAccountRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
