package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.register(t, "alice")

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    int
	}{
		{
			"bearer header",
			func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tokens.AccessToken) },
			http.StatusOK,
		},
		{
			"access cookie",
			func(r *http.Request) { r.AddCookie(&http.Cookie{Name: accessCookieName, Value: tokens.AccessToken}) },
			http.StatusOK,
		},
		{
			"missing credentials",
			func(*http.Request) {},
			http.StatusUnauthorized,
		},
		{
			"garbage token",
			func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") },
			http.StatusUnauthorized,
		},
		{
			"refresh token is not an access token",
			func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tokens.RefreshToken) },
			http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			env.mux.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRequireAuthRejectsDeletedAccount(t *testing.T) {
	env := newTestEnv(t)
	user, tokens := env.register(t, "alice")

	env.users.mu.Lock()
	delete(env.users.byID, user.ID)
	env.users.mu.Unlock()

	rec := env.do(t, http.MethodGet, "/api/v1/users/me", tokens.AccessToken, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted account, got %d", rec.Code)
	}
}
