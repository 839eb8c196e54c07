package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/relations"
)

func TestToggleSubscription(t *testing.T) {
	env := newTestEnv(t)
	channel, _ := env.register(t, "alice")
	viewer, tokens := env.register(t, "bob")

	rec := env.do(t, http.MethodPost, "/api/v1/subscriptions/channels/"+channel.ID+"/toggle", tokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if data := decodeEnvelope(t, rec).Data.(map[string]any); data["subscribed"] != true {
		t.Fatalf("expected subscribed=true, got %v", data)
	}

	exists, err := env.relations.Exists(context.Background(), viewer.ID, relations.KindSubscription, channel.ID)
	if err != nil || !exists {
		t.Fatalf("expected a stored subscription, exists=%v err=%v", exists, err)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/subscriptions/channels/"+channel.ID+"/toggle", tokens.AccessToken, nil)
	if data := decodeEnvelope(t, rec).Data.(map[string]any); data["subscribed"] != false {
		t.Fatalf("expected subscribed=false after second toggle, got %v", data)
	}
}

func TestToggleSubscriptionRejectsSelf(t *testing.T) {
	env := newTestEnv(t)
	user, tokens := env.register(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/subscriptions/channels/"+user.ID+"/toggle", tokens.AccessToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self-subscription, got %d", rec.Code)
	}
	if env.relations.Len() != 0 {
		t.Fatal("self-subscription must not create a relation")
	}
}

func TestToggleSubscriptionUnknownChannel(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.register(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/subscriptions/channels/missing/toggle", tokens.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListSubscribedChannels(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.register(t, "alice")

	env.subs.channels = []models.ChannelProfile{
		{PublicProfile: models.PublicProfile{Handle: "creator", DisplayName: "Creator"}, SubscriberCount: 7, Subscribed: true},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/subscriptions/channels", tokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	listed := decodeEnvelope(t, rec).Data.([]any)
	if len(listed) != 1 || listed[0].(map[string]any)["handle"] != "creator" {
		t.Fatalf("unexpected channel listing: %v", listed)
	}
}

func TestListSubscribersIsOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	channel, channelTokens := env.register(t, "alice")
	_, otherTokens := env.register(t, "bob")

	env.subs.subscribers = []models.PublicProfile{{Handle: "bob", DisplayName: "Bob"}}

	rec := env.do(t, http.MethodGet, "/api/v1/channels/"+channel.ID+"/subscribers", otherTokens.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner: expected 403, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/channels/"+channel.ID+"/subscribers", channelTokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner: expected 200, got %d", rec.Code)
	}
	listed := decodeEnvelope(t, rec).Data.([]any)
	if len(listed) != 1 || listed[0].(map[string]any)["handle"] != "bob" {
		t.Fatalf("unexpected subscriber listing: %v", listed)
	}
}
