package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/models"
)

// PostHandler implements channel post endpoints.
type PostHandler struct {
	Posts PostStore
	Users UserStore
}

// Create handles POST /api/v1/posts.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "content is required", nil)
		return
	}

	now := time.Now().UTC()
	post := models.Post{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Posts.Create(ctx, post); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "post created", post)
}

// ListForChannel handles GET /api/v1/channels/{id}/posts.
func (h PostHandler) ListForChannel(w http.ResponseWriter, r *http.Request) {
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

	posts, err := h.Posts.ListForOwner(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "posts", posts)
}

// Update handles PATCH /api/v1/posts/{id}.
func (h PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	post, err := h.Posts.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if post.OwnerID != user.ID {
		respondError(ctx, w, errForbidden)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "content is required", nil)
		return
	}

	post.Content = content
	if err := h.Posts.Update(ctx, post); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "post updated", post)
}

// Delete handles DELETE /api/v1/posts/{id}.
func (h PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	post, err := h.Posts.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if post.OwnerID != user.ID {
		respondError(ctx, w, errForbidden)
		return
	}

	if err := h.Posts.Delete(ctx, post.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "post deleted", nil)
}

type postRequest struct {
	Content string `json:"content"`
}
