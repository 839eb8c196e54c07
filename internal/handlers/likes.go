package handlers

import (
	"net/http"

	"github.com/cliptube/backend/internal/relations"
)

// LikeHandler implements the like toggles and the liked-videos listing. One
// toggler serves videos, comments, and posts; only the relation kind differs.
type LikeHandler struct {
	Toggler  RelationToggler
	Videos   VideoStore
	Comments CommentStore
	Posts    PostStore
}

// ToggleVideo handles POST /api/v1/likes/videos/{id}/toggle.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id := r.PathValue("id")
	if _, err := h.Videos.FindByID(ctx, id); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.toggle(w, r, user.ID, relations.KindVideoLike, id)
}

// ToggleComment handles POST /api/v1/likes/comments/{id}/toggle.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id := r.PathValue("id")
	if _, err := h.Comments.FindByID(ctx, id); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.toggle(w, r, user.ID, relations.KindCommentLike, id)
}

// TogglePost handles POST /api/v1/likes/posts/{id}/toggle.
func (h LikeHandler) TogglePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	id := r.PathValue("id")
	if _, err := h.Posts.FindByID(ctx, id); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.toggle(w, r, user.ID, relations.KindPostLike, id)
}

// ListLikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) ListLikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	liked, err := h.Videos.ListLikedBy(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "liked videos", liked)
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, actor string, kind relations.Kind, target string) {
	ctx := r.Context()

	liked, err := h.Toggler.Toggle(ctx, actor, kind, target)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "like toggled", map[string]bool{"liked": liked})
}
