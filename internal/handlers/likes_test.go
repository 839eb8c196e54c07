package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/cliptube/backend/internal/relations"
)

func TestToggleVideoLike(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.register(t, "alice")
	viewer, tokens := env.register(t, "bob")
	video := seedVideo(t, env, owner.ID, "clip", true)

	rec := env.do(t, http.MethodPost, "/api/v1/likes/videos/"+video.ID+"/toggle", tokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if data := decodeEnvelope(t, rec).Data.(map[string]any); data["liked"] != true {
		t.Fatalf("expected liked=true, got %v", data)
	}

	exists, err := env.relations.Exists(context.Background(), viewer.ID, relations.KindVideoLike, video.ID)
	if err != nil || !exists {
		t.Fatalf("expected a stored like relation, exists=%v err=%v", exists, err)
	}

	// The toggle is its own inverse.
	rec = env.do(t, http.MethodPost, "/api/v1/likes/videos/"+video.ID+"/toggle", tokens.AccessToken, nil)
	if data := decodeEnvelope(t, rec).Data.(map[string]any); data["liked"] != false {
		t.Fatalf("expected liked=false after second toggle, got %v", data)
	}
	if env.relations.Len() != 0 {
		t.Fatalf("expected no relations after untoggle, got %d", env.relations.Len())
	}
}

func TestToggleLikeRequiresExistingTarget(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.register(t, "alice")

	for _, path := range []string{
		"/api/v1/likes/videos/missing/toggle",
		"/api/v1/likes/comments/missing/toggle",
		"/api/v1/likes/posts/missing/toggle",
	} {
		rec := env.do(t, http.MethodPost, path, tokens.AccessToken, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestLikesAreIndependentPerKind(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.register(t, "alice")
	_, tokens := env.register(t, "bob")
	video := seedVideo(t, env, owner.ID, "clip", true)

	comment := seedComment(t, env, owner.ID, video.ID, "nice one")
	post := seedPost(t, env, owner.ID, "channel update")

	paths := []string{
		"/api/v1/likes/videos/" + video.ID + "/toggle",
		"/api/v1/likes/comments/" + comment.ID + "/toggle",
		"/api/v1/likes/posts/" + post.ID + "/toggle",
	}
	for _, path := range paths {
		rec := env.do(t, http.MethodPost, path, tokens.AccessToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	if env.relations.Len() != 3 {
		t.Fatalf("expected 3 distinct relations, got %d", env.relations.Len())
	}
}

func TestListLikedVideos(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.register(t, "alice")
	viewer, tokens := env.register(t, "bob")
	video := seedVideo(t, env, owner.ID, "clip", true)

	env.videos.liked[viewer.ID] = []string{video.ID}

	rec := env.do(t, http.MethodGet, "/api/v1/likes/videos", tokens.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	listed := decodeEnvelope(t, rec).Data.([]any)
	if len(listed) != 1 || listed[0].(map[string]any)["id"] != video.ID {
		t.Fatalf("unexpected liked listing: %v", listed)
	}
}
