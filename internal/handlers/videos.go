package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// VideoHandler implements upload, listing, and lifecycle endpoints for videos.
type VideoHandler struct {
	Videos  VideoStore
	History WatchHistoryStore
	Media   media.Host
	Janitor AssetJanitor
	Retry   media.RetryPolicy

	// MaxUploadBytes caps the multipart request body; zero means no cap.
	MaxUploadBytes int64
	// UploadTimeout bounds each transfer to the media host; zero means none.
	UploadTimeout time.Duration
}

// Publish handles POST /api/v1/videos. The request is multipart: metadata
// fields plus the video file and its thumbnail.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.publish")
	defer span.End()

	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if h.Media == nil {
		respondError(ctx, w, media.ErrHostUnavailable)
		return
	}

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid multipart form", nil)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "title is required", nil)
		return
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "videoFile is required", nil)
		return
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "thumbnail is required", nil)
		return
	}
	defer thumbFile.Close()

	id := uuid.NewString()

	uploadCtx := ctx
	if h.UploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, h.UploadTimeout)
		defer cancel()
	}

	videoAsset, err := h.Media.Upload(uploadCtx, uploadName(id, "video", videoHeader), videoFile)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	thumbAsset, err := h.Media.Upload(uploadCtx, uploadName(id, "thumbnail", thumbHeader), thumbFile)
	if err != nil {
		h.enqueueCleanup(ctx, videoAsset.URL, media.KindVideo)
		respondError(ctx, w, err)
		return
	}

	duration := videoAsset.Duration
	if duration == 0 {
		duration, _ = strconv.ParseFloat(r.FormValue("duration"), 64)
	}

	now := time.Now().UTC()
	video := models.Video{
		ID:           id,
		OwnerID:      user.ID,
		VideoURL:     videoAsset.URL,
		ThumbnailURL: thumbAsset.URL,
		Title:        title,
		Description:  strings.TrimSpace(r.FormValue("description")),
		Duration:     duration,
		Published:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.enqueueCleanup(ctx, videoAsset.URL, media.KindVideo)
		h.enqueueCleanup(ctx, thumbAsset.URL, media.KindImage)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "video published", video)
}

// List handles GET /api/v1/videos. Filters, sort field, and page window come
// from query parameters; unpublished videos only appear to their owner.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	q := r.URL.Query()
	opts := repositories.VideoListOptions{
		OwnerID:    q.Get("userId"),
		TitleQuery: q.Get("query"),
		SortBy:     q.Get("sortBy"),
		Order:      repositories.OrderDescending,
	}
	if q.Get("sortType") == "asc" {
		opts.Order = repositories.OrderAscending
	}
	opts.Page, _ = strconv.Atoi(q.Get("page"))
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))
	opts.PublishedOnly = opts.OwnerID == "" || opts.OwnerID != user.ID

	listed, err := h.Videos.List(ctx, opts)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "videos", listed)
}

// Get handles GET /api/v1/videos/{id}. A successful fetch counts as a view
// and lands in the caller's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	summary, err := h.Videos.Get(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	// Drafts are visible to their owner only; to everyone else they do not exist.
	if !summary.Published && summary.OwnerID != user.ID {
		respondError(ctx, w, repositories.ErrNotFound)
		return
	}

	logger := logging.FromContext(ctx)
	if err := h.Videos.IncrementViews(ctx, summary.ID); err != nil {
		logger.Warn("increment views", "videoId", summary.ID, "error", err)
	} else {
		summary.Views++
	}
	if h.History != nil {
		if err := h.History.Record(ctx, user.ID, summary.ID); err != nil {
			logger.Warn("record watch history", "videoId", summary.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, "video", summary)
}

// Update handles PATCH /api/v1/videos/{id}. Metadata fields arrive as JSON or
// multipart; a multipart request may carry a replacement thumbnail.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.OwnerID != user.ID {
		respondError(ctx, w, errForbidden)
		return
	}

	var req updateVideoRequest
	var previousThumb string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, "invalid multipart form", nil)
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")

		if file, header, err := r.FormFile("thumbnail"); err == nil {
			defer file.Close()
			if h.Media == nil {
				respondError(ctx, w, media.ErrHostUnavailable)
				return
			}
			asset, err := h.Media.Upload(ctx, uploadName(video.ID, "thumbnail", header), file)
			if err != nil {
				respondError(ctx, w, err)
				return
			}
			previousThumb = video.ThumbnailURL
			video.ThumbnailURL = asset.URL
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		video.Title = title
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		video.Description = desc
	}

	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	if previousThumb != "" {
		h.enqueueCleanup(ctx, previousThumb, media.KindImage)
	}

	respondJSON(ctx, w, http.StatusOK, "video updated", video)
}

// Delete handles DELETE /api/v1/videos/{id}. The remote assets are removed
// first with bounded retries; the row is deleted regardless of the outcome so
// a flaky media host cannot leave the video undead, and any surviving asset
// is reported for manual cleanup.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.delete")
	defer span.End()

	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.OwnerID != user.ID {
		respondError(ctx, w, errForbidden)
		return
	}

	logger := logging.FromContext(ctx)
	if h.Media != nil {
		if !media.DeleteWithRetry(ctx, h.Media, video.VideoURL, media.KindVideo, h.Retry, logger) {
			logger.Error("video asset survived deletion retries", "videoId", video.ID, "ref", video.VideoURL)
		}
		if !media.DeleteWithRetry(ctx, h.Media, video.ThumbnailURL, media.KindImage, h.Retry, logger) {
			logger.Error("thumbnail asset survived deletion retries", "videoId", video.ID, "ref", video.ThumbnailURL)
		}
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "video deleted", nil)
}

// TogglePublish handles PATCH /api/v1/videos/{id}/toggle-publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.OwnerID != user.ID {
		respondError(ctx, w, errForbidden)
		return
	}

	video.Published = !video.Published
	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "publish state toggled", map[string]bool{"published": video.Published})
}

func (h VideoHandler) enqueueCleanup(ctx context.Context, ref string, kind media.AssetKind) {
	if ref == "" || h.Janitor == nil {
		return
	}
	if err := h.Janitor.Enqueue(ctx, ref, kind); err != nil {
		logging.FromContext(ctx).Warn("enqueue asset cleanup", "ref", ref, "error", err)
	}
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
