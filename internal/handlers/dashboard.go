package handlers

import (
	"net/http"
	"strconv"

	"github.com/cliptube/backend/internal/repositories"
)

// DashboardHandler implements the channel owner's dashboard endpoints.
type DashboardHandler struct {
	Stats  StatsStore
	Videos VideoStore
}

// ChannelStats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) ChannelStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	stats, err := h.Stats.ChannelStats(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "channel stats", stats)
}

// ChannelVideos handles GET /api/v1/dashboard/videos: every video the caller
// owns, drafts included.
func (h DashboardHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	q := r.URL.Query()
	opts := repositories.VideoListOptions{
		OwnerID: user.ID,
		Order:   repositories.OrderDescending,
	}
	opts.Page, _ = strconv.Atoi(q.Get("page"))
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))

	listed, err := h.Videos.List(ctx, opts)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "channel videos", listed)
}
