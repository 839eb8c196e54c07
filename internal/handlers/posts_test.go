package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/models"
)

func seedPost(t *testing.T, env *testEnv, ownerID, content string) models.Post {
	t.Helper()

	now := time.Now().UTC()
	post := models.Post{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := env.posts.Create(context.Background(), post); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post
}

func TestCreateAndListPosts(t *testing.T) {
	env := newTestEnv(t)
	channel, channelTokens := env.register(t, "alice")
	_, viewerTokens := env.register(t, "bob")

	rec := env.do(t, http.MethodPost, "/api/v1/posts", channelTokens.AccessToken, map[string]string{
		"content": "welcome to my channel",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/channels/"+channel.ID+"/posts", viewerTokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	listed := decodeEnvelope(t, rec).Data.([]any)
	if len(listed) != 1 || listed[0].(map[string]any)["content"] != "welcome to my channel" {
		t.Fatalf("unexpected post listing: %v", listed)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/channels/missing/posts", viewerTokens.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown channel: expected 404, got %d", rec.Code)
	}
}

func TestUpdateAndDeletePostAreOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	channel, channelTokens := env.register(t, "alice")
	_, otherTokens := env.register(t, "bob")
	post := seedPost(t, env, channel.ID, "original")

	rec := env.do(t, http.MethodPatch, "/api/v1/posts/"+post.ID, otherTokens.AccessToken, map[string]string{
		"content": "hijacked",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner update: expected 403, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/api/v1/posts/"+post.ID, channelTokens.AccessToken, map[string]string{
		"content": "updated",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("owner update: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/posts/"+post.ID, otherTokens.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete: expected 403, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/posts/"+post.ID, channelTokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete: expected 200, got %d", rec.Code)
	}
	if _, err := env.posts.FindByID(context.Background(), post.ID); err == nil {
		t.Error("expected post to be gone")
	}
}
