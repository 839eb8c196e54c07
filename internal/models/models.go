package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User represents an account within the ClipTube platform. PasswordHash and
// RefreshToken are persistence-only fields and must never be serialized into
// an API response; handlers expose a PublicProfile instead.
type User struct {
	ID           string
	Handle       string
	Email        string
	DisplayName  string
	Avatar       string
	CoverImage   string
	PasswordHash string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrInvalidHandle indicates the handle is empty or malformed.
	ErrInvalidHandle = errors.New("handle must be non-empty and contain no spaces")
	// ErrInvalidEmail indicates the email address failed to parse.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword indicates the password does not meet the minimum length.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// NewUser constructs an account record, normalizing handle and email and
// hashing the password up front so the hash is an explicit step in the write
// path rather than a storage-layer side effect.
func NewUser(handle, email, displayName, password string) (User, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	if handle == "" || strings.ContainsAny(handle, " \t") {
		return User{}, ErrInvalidHandle
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, ErrInvalidEmail
	}
	if len(password) < 8 {
		return User{}, ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	return User{
		ID:           uuid.NewString(),
		Handle:       handle,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckPassword reports whether the supplied plaintext matches the stored hash.
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the stored hash with one derived from the new plaintext.
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// PublicProfile is the owner projection embedded in listings and lookups.
// It deliberately excludes credential fields.
type PublicProfile struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}

// Public returns the safe projection of the account.
func (u User) Public() PublicProfile {
	return PublicProfile{Handle: u.Handle, DisplayName: u.DisplayName, Avatar: u.Avatar}
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// Video stores references to uploaded media along with descriptive metadata.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VideoSummary is a video denormalized with its owner's public profile and
// the computed like count, as returned by the aggregated listings.
type VideoSummary struct {
	Video
	Owner     PublicProfile `json:"owner"`
	LikeCount int64         `json:"likeCount"`
}

// Comment is a user remark attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentSummary carries a comment with its owner profile and like count.
type CommentSummary struct {
	Comment
	Owner     PublicProfile `json:"owner"`
	LikeCount int64         `json:"likeCount"`
}

// Post is a short text update published on a user's channel.
type Post struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist is a named, ordered collection of videos owned by one account.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int64     `json:"videoCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChannelProfile is the channel view of an account, including social counts.
type ChannelProfile struct {
	PublicProfile
	CoverImage        string `json:"coverImage,omitempty"`
	Email             string `json:"email"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	Subscribed        bool   `json:"subscribed"`
}

// ChannelStats aggregates the dashboard numbers for one channel.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}
