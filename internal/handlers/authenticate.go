package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cliptube/backend/internal/models"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

type userCtxKey struct{}

// currentUser returns the authenticated account placed on the context by
// RequireAuth.
func currentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(models.User)
	return user, ok
}

// RequireAuth verifies the caller's access token, resolves the live account,
// and makes it available to the wrapped handler. The token is read from the
// Authorization header or, failing that, the access cookie.
func RequireAuth(sessions SessionManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := requestToken(r)
		if token == "" {
			respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		user, err := sessions.VerifyAccess(ctx, token)
		if err != nil {
			respondError(ctx, w, err)
			return
		}

		next(w, r.WithContext(context.WithValue(ctx, userCtxKey{}, user)))
	}
}

func requestToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(accessCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func setAuthCookies(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, authCookie(accessCookieName, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, authCookie(refreshCookieName, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func clearAuthCookies(w http.ResponseWriter) {
	expired := time.Unix(0, 0)
	http.SetCookie(w, authCookie(accessCookieName, "", expired))
	http.SetCookie(w, authCookie(refreshCookieName, "", expired))
}

func authCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
