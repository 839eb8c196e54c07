package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

const maxUploadMemory = 32 << 20

// AuthHandler implements account registration and session endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Media    media.Host
	Janitor  AssetJanitor
	Limiter  RateLimiter
}

// Register handles POST /api/v1/auth/register. The request is multipart so
// the avatar and cover image can be uploaded alongside the account fields.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondJSON(ctx, w, http.StatusTooManyRequests, "too many requests", nil)
		return
	}

	var req registerRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, "invalid multipart form", nil)
			return
		}
		req = registerRequest{
			Handle:      r.FormValue("handle"),
			Email:       r.FormValue("email"),
			DisplayName: r.FormValue("displayName"),
			Password:    r.FormValue("password"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	user, err := models.NewUser(req.Handle, req.Email, req.DisplayName, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if r.MultipartForm != nil {
		avatar, err := h.uploadFormImage(r, "avatar", user.ID)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		cover, err := h.uploadFormImage(r, "coverImage", user.ID)
		if err != nil {
			h.discard(r, avatar)
			respondError(ctx, w, err)
			return
		}
		user.Avatar = avatar
		user.CoverImage = cover
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.discard(r, user.Avatar)
		h.discard(r, user.CoverImage)
		if errors.Is(err, repositories.ErrConflict) {
			respondJSON(ctx, w, http.StatusConflict, "an account with that handle or email already exists", nil)
			return
		}
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Sessions.IssuePair(ctx, user)
	if err != nil {
		logger.Error("issue tokens after registration", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, tokens)
	respondJSON(ctx, w, http.StatusCreated, "account created", sessionResponse{
		User:   user.Public(),
		Tokens: tokens,
	})
}

// Login handles POST /api/v1/auth/login. The identifier may be a handle or an
// email address.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, "too many requests", nil)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "identifier and password are required", nil)
		return
	}

	user, err := h.Users.FindByHandleOrEmail(ctx, identifier)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, err)
			return
		}
		respondJSON(ctx, w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	if !user.CheckPassword(req.Password) {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tokens, err := h.Sessions.IssuePair(ctx, user)
	if err != nil {
		logger.Error("issue tokens", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, "logged in", sessionResponse{
		User:   user.Public(),
		Tokens: tokens,
	})
}

// Logout handles POST /api/v1/auth/logout. Clearing the stored refresh token
// makes every outstanding refresh token for the account unusable.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearAuthCookies(w)
	respondJSON(ctx, w, http.StatusOK, "logged out", nil)
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token comes from the
// body or the refresh cookie and is consumed by the rotation: a second
// exchange of the same token fails.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "refresh") {
		respondJSON(ctx, w, http.StatusTooManyRequests, "too many requests", nil)
		return
	}

	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
			return
		}
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := r.Cookie(refreshCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "refresh token is required", nil)
		return
	}

	tokens, err := h.Sessions.Rotate(ctx, token)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, "session refreshed", map[string]any{"tokens": tokens})
}

// ChangePassword handles POST /api/v1/auth/change-password.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if !user.CheckPassword(req.OldPassword) {
		respondJSON(ctx, w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Users.Update(ctx, user); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "password changed", nil)
}

// uploadFormImage sends the named form file to the media host and returns the
// asset URL, or "" when the field is absent.
func (h AuthHandler) uploadFormImage(r *http.Request, field, userID string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s upload: %w", field, err)
	}
	defer file.Close()

	if h.Media == nil {
		return "", media.ErrHostUnavailable
	}

	asset, err := h.Media.Upload(r.Context(), uploadName(userID, field, header), file)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", field, err)
	}
	return asset.URL, nil
}

// discard enqueues cleanup for an asset uploaded during a request that then
// failed, so it does not linger on the host unreferenced.
func (h AuthHandler) discard(r *http.Request, ref string) {
	if ref == "" || h.Janitor == nil {
		return
	}
	if err := h.Janitor.Enqueue(r.Context(), ref, media.KindImage); err != nil {
		logging.FromContext(r.Context()).Warn("enqueue asset cleanup", "ref", ref, "error", err)
	}
}

func uploadName(userID, field string, header *multipart.FileHeader) string {
	name := fmt.Sprintf("%s/%s-%s", userID, field, uuid.NewString())
	if header != nil && header.Filename != "" {
		if idx := strings.LastIndex(header.Filename, "."); idx >= 0 {
			name += header.Filename[idx:]
		}
	}
	return name
}

type registerRequest struct {
	Handle      string `json:"handle"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	User   models.PublicProfile `json:"user"`
	Tokens models.TokenPair     `json:"tokens"`
}
