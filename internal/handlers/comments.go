package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// CommentHandler implements comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
}

// List handles GET /api/v1/videos/{id}/comments.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := currentUser(ctx); !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	videoID := r.PathValue("id")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	q := r.URL.Query()
	opts := repositories.CommentListOptions{
		VideoID: videoID,
		SortBy:  q.Get("sortBy"),
		Order:   repositories.OrderDescending,
	}
	if q.Get("sortType") == "asc" {
		opts.Order = repositories.OrderAscending
	}
	opts.Page, _ = strconv.Atoi(q.Get("page"))
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))

	listed, err := h.Comments.ListForVideo(ctx, opts)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "comments", listed)
}

// Create handles POST /api/v1/videos/{id}/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "content is required", nil)
		return
	}

	videoID := r.PathValue("id")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	now := time.Now().UTC()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   user.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "comment added", comment)
}

// Update handles PATCH /api/v1/comments/{id}. Only the author may edit.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comment.OwnerID != user.ID {
		respondError(ctx, w, errForbidden)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "content is required", nil)
		return
	}

	comment.Content = content
	if err := h.Comments.Update(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "comment updated", comment)
}

// Delete handles DELETE /api/v1/comments/{id}. The author or the video owner
// may remove a comment.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if comment.OwnerID != user.ID {
		video, err := h.Videos.FindByID(ctx, comment.VideoID)
		if err != nil || video.OwnerID != user.ID {
			respondError(ctx, w, errForbidden)
			return
		}
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "comment deleted", nil)
}

type commentRequest struct {
	Content string `json:"content"`
}
