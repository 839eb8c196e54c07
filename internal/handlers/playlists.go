package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/models"
)

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Users     UserStore
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "name is required", nil)
		return
	}

	now := time.Now().UTC()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "playlist created", playlist)
}

// Get handles GET /api/v1/playlists/{id}: the playlist and its videos.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := currentUser(ctx); !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	listed, err := h.Playlists.ListVideos(ctx, playlist.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "playlist", map[string]any{
		"playlist": playlist,
		"videos":   listed,
	})
}

// ListForChannel handles GET /api/v1/channels/{id}/playlists.
func (h PlaylistHandler) ListForChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := currentUser(ctx); !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	channelID := r.PathValue("id")
	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlists, err := h.Playlists.ListForOwner(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "playlists", playlists)
}

// Update handles PATCH /api/v1/playlists/{id}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		playlist.Name = name
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		playlist.Description = desc
	}

	if err := h.Playlists.Update(ctx, playlist); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "playlist updated", playlist)
}

// Delete handles DELETE /api/v1/playlists/{id}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "playlist deleted", nil)
}

// AddVideo handles POST /api/v1/playlists/{id}/videos/{videoId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "video added to playlist", nil)
}

// RemoveVideo handles DELETE /api/v1/playlists/{id}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, r.PathValue("videoId")); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "video removed from playlist", nil)
}

// ownedPlaylist resolves the playlist in the path and checks the caller owns
// it, writing the error response itself when not.
func (h PlaylistHandler) ownedPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return models.Playlist{}, false
	}
	if playlist.OwnerID != user.ID {
		respondError(ctx, w, errForbidden)
		return models.Playlist{}, false
	}
	return playlist, true
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
