package handlers

import (
	"net/http"

	"github.com/cliptube/backend/internal/relations"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Toggler       RelationToggler
	Users         UserStore
	Subscriptions SubscriptionStore
}

// Toggle handles POST /api/v1/subscriptions/channels/{id}/toggle.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	channelID := r.PathValue("id")
	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		respondError(ctx, w, err)
		return
	}

	subscribed, err := h.Toggler.Toggle(ctx, user.ID, relations.KindSubscription, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "subscription toggled", map[string]bool{"subscribed": subscribed})
}

// ListChannels handles GET /api/v1/subscriptions/channels: the channels the
// caller subscribes to.
func (h SubscriptionHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	channels, err := h.Subscriptions.ListSubscribedChannels(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "subscribed channels", channels)
}

// ListSubscribers handles GET /api/v1/channels/{id}/subscribers. The list is
// visible to the channel owner only.
func (h SubscriptionHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	channelID := r.PathValue("id")
	if channelID != user.ID {
		respondError(ctx, w, errForbidden)
		return
	}

	subscribers, err := h.Subscriptions.ListSubscribers(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "subscribers", subscribers)
}
