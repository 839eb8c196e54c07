package handlers

import (
	"net/http"
	"time"

	"github.com/cliptube/backend/internal/media"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Videos        VideoStore
	Comments      CommentStore
	Posts         PostStore
	Playlists     PlaylistStore
	Subscriptions SubscriptionStore
	History       WatchHistoryStore
	Stats         StatsStore
	Toggler       RelationToggler
	Media         media.Host
	Janitor       AssetJanitor
	RetryPolicy   media.RetryPolicy
	AuthLimiter   RateLimiter

	MaxUploadBytes int64
	UploadTimeout  time.Duration
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Media: deps.Media, Janitor: deps.Janitor, Limiter: deps.AuthLimiter}
	users := UserHandler{Users: deps.Users, Media: deps.Media, Janitor: deps.Janitor, History: deps.History}
	videos := VideoHandler{
		Videos:         deps.Videos,
		History:        deps.History,
		Media:          deps.Media,
		Janitor:        deps.Janitor,
		Retry:          deps.RetryPolicy,
		MaxUploadBytes: deps.MaxUploadBytes,
		UploadTimeout:  deps.UploadTimeout,
	}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos}
	likes := LikeHandler{Toggler: deps.Toggler, Videos: deps.Videos, Comments: deps.Comments, Posts: deps.Posts}
	subs := SubscriptionHandler{Toggler: deps.Toggler, Users: deps.Users, Subscriptions: deps.Subscriptions}
	posts := PostHandler{Posts: deps.Posts, Users: deps.Users}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Users: deps.Users}
	dashboard := DashboardHandler{Stats: deps.Stats, Videos: deps.Videos}

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAuth(deps.Sessions, next)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/register", authH.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authH.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authed(authH.Logout))
	mux.HandleFunc("POST /api/v1/auth/change-password", authed(authH.ChangePassword))

	mux.HandleFunc("GET /api/v1/users/me", authed(users.Current))
	mux.HandleFunc("PATCH /api/v1/users/me", authed(users.UpdateAccount))
	mux.HandleFunc("PATCH /api/v1/users/me/avatar", authed(users.UpdateAvatar))
	mux.HandleFunc("PATCH /api/v1/users/me/cover", authed(users.UpdateCover))
	mux.HandleFunc("GET /api/v1/users/me/history", authed(users.WatchHistory))

	mux.HandleFunc("GET /api/v1/channels/{handle}", authed(users.Channel))
	mux.HandleFunc("GET /api/v1/channels/{id}/subscribers", authed(subs.ListSubscribers))
	mux.HandleFunc("GET /api/v1/channels/{id}/posts", authed(posts.ListForChannel))
	mux.HandleFunc("GET /api/v1/channels/{id}/playlists", authed(playlists.ListForChannel))

	mux.HandleFunc("POST /api/v1/videos", authed(videos.Publish))
	mux.HandleFunc("GET /api/v1/videos", authed(videos.List))
	mux.HandleFunc("GET /api/v1/videos/{id}", authed(videos.Get))
	mux.HandleFunc("PATCH /api/v1/videos/{id}", authed(videos.Update))
	mux.HandleFunc("DELETE /api/v1/videos/{id}", authed(videos.Delete))
	mux.HandleFunc("PATCH /api/v1/videos/{id}/toggle-publish", authed(videos.TogglePublish))

	mux.HandleFunc("GET /api/v1/videos/{id}/comments", authed(comments.List))
	mux.HandleFunc("POST /api/v1/videos/{id}/comments", authed(comments.Create))
	mux.HandleFunc("PATCH /api/v1/comments/{id}", authed(comments.Update))
	mux.HandleFunc("DELETE /api/v1/comments/{id}", authed(comments.Delete))

	mux.HandleFunc("POST /api/v1/likes/videos/{id}/toggle", authed(likes.ToggleVideo))
	mux.HandleFunc("POST /api/v1/likes/comments/{id}/toggle", authed(likes.ToggleComment))
	mux.HandleFunc("POST /api/v1/likes/posts/{id}/toggle", authed(likes.TogglePost))
	mux.HandleFunc("GET /api/v1/likes/videos", authed(likes.ListLikedVideos))

	mux.HandleFunc("POST /api/v1/subscriptions/channels/{id}/toggle", authed(subs.Toggle))
	mux.HandleFunc("GET /api/v1/subscriptions/channels", authed(subs.ListChannels))

	mux.HandleFunc("POST /api/v1/posts", authed(posts.Create))
	mux.HandleFunc("PATCH /api/v1/posts/{id}", authed(posts.Update))
	mux.HandleFunc("DELETE /api/v1/posts/{id}", authed(posts.Delete))

	mux.HandleFunc("POST /api/v1/playlists", authed(playlists.Create))
	mux.HandleFunc("GET /api/v1/playlists/{id}", authed(playlists.Get))
	mux.HandleFunc("PATCH /api/v1/playlists/{id}", authed(playlists.Update))
	mux.HandleFunc("DELETE /api/v1/playlists/{id}", authed(playlists.Delete))
	mux.HandleFunc("POST /api/v1/playlists/{id}/videos/{videoId}", authed(playlists.AddVideo))
	mux.HandleFunc("DELETE /api/v1/playlists/{id}/videos/{videoId}", authed(playlists.RemoveVideo))

	mux.HandleFunc("GET /api/v1/dashboard/stats", authed(dashboard.ChannelStats))
	mux.HandleFunc("GET /api/v1/dashboard/videos", authed(dashboard.ChannelVideos))
}
