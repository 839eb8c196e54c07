package handlers

import (
	"context"

	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/relations"
	"github.com/cliptube/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the account handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByHandleOrEmail(ctx context.Context, identifier string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	ChannelProfile(ctx context.Context, handle, viewerID string) (models.ChannelProfile, error)
}

// SessionManager issues, verifies, rotates, and revokes token pairs.
type SessionManager interface {
	IssuePair(ctx context.Context, user models.User) (models.TokenPair, error)
	VerifyAccess(ctx context.Context, token string) (models.User, error)
	Rotate(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Get(ctx context.Context, id string) (models.VideoSummary, error)
	List(ctx context.Context, opts repositories.VideoListOptions) ([]models.VideoSummary, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	ListLikedBy(ctx context.Context, userID string) ([]models.VideoSummary, error)
}

// CommentStore captures persistence for comment workflows.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, opts repositories.CommentListOptions) ([]models.CommentSummary, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
}

// PostStore captures persistence for channel posts.
type PostStore interface {
	Create(ctx context.Context, post models.Post) error
	FindByID(ctx context.Context, id string) (models.Post, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Post, error)
	Update(ctx context.Context, post models.Post) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	ListVideos(ctx context.Context, playlistID string) ([]models.VideoSummary, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// SubscriptionStore exposes the subscription views built on relation records.
type SubscriptionStore interface {
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelProfile, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.PublicProfile, error)
}

// WatchHistoryStore records and lists which videos an account watched.
type WatchHistoryStore interface {
	Record(ctx context.Context, userID, videoID string) error
	List(ctx context.Context, userID string) ([]models.VideoSummary, error)
}

// StatsStore aggregates the dashboard numbers for a channel.
type StatsStore interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

// RelationToggler flips likes and subscriptions.
type RelationToggler interface {
	Toggle(ctx context.Context, actor string, kind relations.Kind, target string) (bool, error)
}

// AssetJanitor schedules best-effort background deletion of replaced assets.
type AssetJanitor interface {
	Enqueue(ctx context.Context, ref string, kind media.AssetKind) error
}
