package repositories

import (
	"context"

	"github.com/cliptube/backend/internal/models"
)

// UserRepository defines the data access contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByHandleOrEmail(ctx context.Context, identifier string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id string) error
	ChannelProfile(ctx context.Context, handle, viewerID string) (models.ChannelProfile, error)
}

// SortOrder is the direction of a listing sort.
type SortOrder string

const (
	OrderAscending  SortOrder = "asc"
	OrderDescending SortOrder = "desc"
)

// VideoListOptions shape the aggregated video listing: filters, a sort on a
// whitelisted field, and page/limit windowing.
type VideoListOptions struct {
	OwnerID       string
	TitleQuery    string
	PublishedOnly bool
	SortBy        string
	Order         SortOrder
	Page          int
	Limit         int
}

// CommentListOptions shape the aggregated comment listing for one video.
type CommentListOptions struct {
	VideoID string
	SortBy  string
	Order   SortOrder
	Page    int
	Limit   int
}

// VideoRepository exposes data access for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	// Get resolves a video together with its owner profile and like count.
	Get(ctx context.Context, id string) (models.VideoSummary, error)
	List(ctx context.Context, opts VideoListOptions) ([]models.VideoSummary, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	ListLikedBy(ctx context.Context, userID string) ([]models.VideoSummary, error)
}

// CommentRepository exposes data access for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, opts CommentListOptions) ([]models.CommentSummary, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
}

// PostRepository exposes data access for channel posts.
type PostRepository interface {
	Create(ctx context.Context, post models.Post) error
	FindByID(ctx context.Context, id string) (models.Post, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Post, error)
	Update(ctx context.Context, post models.Post) error
	Delete(ctx context.Context, id string) error
}

// PlaylistRepository exposes data access for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	ListVideos(ctx context.Context, playlistID string) ([]models.VideoSummary, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// SubscriptionRepository exposes the subscription views built on relation
// records.
type SubscriptionRepository interface {
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelProfile, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.PublicProfile, error)
}

// WatchHistoryRepository records and lists which videos an account watched.
type WatchHistoryRepository interface {
	Record(ctx context.Context, userID, videoID string) error
	List(ctx context.Context, userID string) ([]models.VideoSummary, error)
}

// StatsRepository aggregates the dashboard numbers for a channel.
type StatsRepository interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}
