package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/config"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/relations"
	"github.com/cliptube/backend/internal/repositories"
)

// memUsers is an in-memory UserStore that doubles as the auth.AccountStore so
// handler tests run against the real session manager.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]models.User)}
}

func (s *memUsers) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Handle == user.Handle || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.byID[user.ID] = user
	return nil
}

func (s *memUsers) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memUsers) FindByHandleOrEmail(_ context.Context, identifier string) (models.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byID {
		if user.Handle == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUsers) Update(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.byID[user.ID] = user
	return nil
}

func (s *memUsers) ChannelProfile(_ context.Context, handle, _ string) (models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byID {
		if user.Handle == strings.ToLower(strings.TrimSpace(handle)) {
			return models.ChannelProfile{PublicProfile: user.Public(), Email: user.Email, CoverImage: user.CoverImage}, nil
		}
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s *memUsers) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.byID[userID] = user
	return nil
}

func (s *memUsers) SwapRefreshToken(_ context.Context, userID, previous, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	if user.RefreshToken != previous {
		return auth.ErrStaleRefreshToken
	}
	user.RefreshToken = next
	s.byID[userID] = user
	return nil
}

func (s *memUsers) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = ""
	s.byID[userID] = user
	return nil
}

type memVideos struct {
	mu    sync.Mutex
	byID  map[string]models.Video
	liked map[string][]string
}

func newMemVideos() *memVideos {
	return &memVideos{byID: make(map[string]models.Video), liked: make(map[string][]string)}
}

func (s *memVideos) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[video.ID] = video
	return nil
}

func (s *memVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.byID[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *memVideos) Get(ctx context.Context, id string) (models.VideoSummary, error) {
	video, err := s.FindByID(ctx, id)
	if err != nil {
		return models.VideoSummary{}, err
	}
	return models.VideoSummary{Video: video}, nil
}

func (s *memVideos) List(_ context.Context, opts repositories.VideoListOptions) ([]models.VideoSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var listed []models.VideoSummary
	for _, video := range s.byID {
		if opts.OwnerID != "" && video.OwnerID != opts.OwnerID {
			continue
		}
		if opts.PublishedOnly && !video.Published {
			continue
		}
		if opts.TitleQuery != "" && !strings.Contains(strings.ToLower(video.Title), strings.ToLower(opts.TitleQuery)) {
			continue
		}
		listed = append(listed, models.VideoSummary{Video: video})
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].ID < listed[j].ID })
	return listed, nil
}

func (s *memVideos) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.byID[video.ID] = video
	return nil
}

func (s *memVideos) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *memVideos) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.byID[id] = video
	return nil
}

func (s *memVideos) ListLikedBy(_ context.Context, userID string) ([]models.VideoSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var listed []models.VideoSummary
	for _, id := range s.liked[userID] {
		if video, ok := s.byID[id]; ok {
			listed = append(listed, models.VideoSummary{Video: video})
		}
	}
	return listed, nil
}

type memComments struct {
	mu   sync.Mutex
	byID map[string]models.Comment
}

func newMemComments() *memComments {
	return &memComments{byID: make(map[string]models.Comment)}
}

func (s *memComments) Create(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[comment.ID] = comment
	return nil
}

func (s *memComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.byID[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *memComments) ListForVideo(_ context.Context, opts repositories.CommentListOptions) ([]models.CommentSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var listed []models.CommentSummary
	for _, comment := range s.byID {
		if comment.VideoID == opts.VideoID {
			listed = append(listed, models.CommentSummary{Comment: comment})
		}
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].CreatedAt.After(listed[j].CreatedAt) })
	return listed, nil
}

func (s *memComments) Update(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[comment.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.byID[comment.ID] = comment
	return nil
}

func (s *memComments) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

type memPosts struct {
	mu   sync.Mutex
	byID map[string]models.Post
}

func newMemPosts() *memPosts {
	return &memPosts{byID: make(map[string]models.Post)}
}

func (s *memPosts) Create(_ context.Context, post models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[post.ID] = post
	return nil
}

func (s *memPosts) FindByID(_ context.Context, id string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.byID[id]
	if !ok {
		return models.Post{}, repositories.ErrNotFound
	}
	return post, nil
}

func (s *memPosts) ListForOwner(_ context.Context, ownerID string) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var listed []models.Post
	for _, post := range s.byID {
		if post.OwnerID == ownerID {
			listed = append(listed, post)
		}
	}
	return listed, nil
}

func (s *memPosts) Update(_ context.Context, post models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[post.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.byID[post.ID] = post
	return nil
}

func (s *memPosts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

type memPlaylists struct {
	mu      sync.Mutex
	byID    map[string]models.Playlist
	members map[string][]string
	videos  *memVideos
}

func newMemPlaylists(videos *memVideos) *memPlaylists {
	return &memPlaylists{byID: make(map[string]models.Playlist), members: make(map[string][]string), videos: videos}
}

func (s *memPlaylists) Create(_ context.Context, playlist models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[playlist.ID] = playlist
	return nil
}

func (s *memPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.byID[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.VideoCount = int64(len(s.members[id]))
	return playlist, nil
}

func (s *memPlaylists) ListForOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var listed []models.Playlist
	for _, playlist := range s.byID {
		if playlist.OwnerID == ownerID {
			playlist.VideoCount = int64(len(s.members[playlist.ID]))
			listed = append(listed, playlist)
		}
	}
	return listed, nil
}

func (s *memPlaylists) ListVideos(ctx context.Context, playlistID string) ([]models.VideoSummary, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.members[playlistID]...)
	s.mu.Unlock()

	var listed []models.VideoSummary
	for _, id := range ids {
		if summary, err := s.videos.Get(ctx, id); err == nil {
			listed = append(listed, summary)
		}
	}
	return listed, nil
}

func (s *memPlaylists) Update(_ context.Context, playlist models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[playlist.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.byID[playlist.ID] = playlist
	return nil
}

func (s *memPlaylists) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.members, id)
	return nil
}

func (s *memPlaylists) AddVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.members[playlistID] {
		if id == videoID {
			return repositories.ErrConflict
		}
	}
	s.members[playlistID] = append(s.members[playlistID], videoID)
	return nil
}

func (s *memPlaylists) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.members[playlistID] {
		if id == videoID {
			s.members[playlistID] = append(s.members[playlistID][:i], s.members[playlistID][i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

// memHistory keeps the most recent watch first and dedupes rewatches.
type memHistory struct {
	mu      sync.Mutex
	entries map[string][]string
	videos  *memVideos
}

func newMemHistory(videos *memVideos) *memHistory {
	return &memHistory{entries: make(map[string][]string), videos: videos}
}

func (s *memHistory) Record(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := []string{videoID}
	for _, id := range s.entries[userID] {
		if id != videoID {
			filtered = append(filtered, id)
		}
	}
	s.entries[userID] = filtered
	return nil
}

func (s *memHistory) List(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.entries[userID]...)
	s.mu.Unlock()

	var listed []models.VideoSummary
	for _, id := range ids {
		if summary, err := s.videos.Get(ctx, id); err == nil {
			listed = append(listed, summary)
		}
	}
	return listed, nil
}

type stubStats struct {
	stats models.ChannelStats
}

func (s stubStats) ChannelStats(context.Context, string) (models.ChannelStats, error) {
	return s.stats, nil
}

type stubSubscriptions struct {
	channels    []models.ChannelProfile
	subscribers []models.PublicProfile
}

func (s stubSubscriptions) ListSubscribedChannels(context.Context, string) ([]models.ChannelProfile, error) {
	return s.channels, nil
}

func (s stubSubscriptions) ListSubscribers(context.Context, string) ([]models.PublicProfile, error) {
	return s.subscribers, nil
}

// fakeHost records uploads and deletes, optionally failing the first N
// deletes per ref.
type fakeHost struct {
	mu           sync.Mutex
	uploads      []string
	deletes      map[string]int
	failsPerRef  int
	uploadPrefix string
}

func newFakeHost() *fakeHost {
	return &fakeHost{deletes: make(map[string]int), uploadPrefix: "https://cdn.test/"}
}

func (h *fakeHost) Upload(_ context.Context, name string, r io.Reader) (media.Asset, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return media.Asset{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	url := h.uploadPrefix + name
	h.uploads = append(h.uploads, url)
	return media.Asset{URL: url}, nil
}

func (h *fakeHost) Delete(_ context.Context, ref string, _ media.AssetKind) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deletes[ref]++
	if h.deletes[ref] <= h.failsPerRef {
		return media.ErrHostUnavailable
	}
	return nil
}

func (h *fakeHost) deleteCount(ref string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deletes[ref]
}

// recordingJanitor runs nothing in the background; it just remembers what the
// handlers asked it to clean up.
type recordingJanitor struct {
	mu   sync.Mutex
	refs []string
}

func (j *recordingJanitor) Enqueue(_ context.Context, ref string, _ media.AssetKind) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.refs = append(j.refs, ref)
	return nil
}

func (j *recordingJanitor) enqueued() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.refs...)
}

type testEnv struct {
	mux       *http.ServeMux
	users     *memUsers
	videos    *memVideos
	comments  *memComments
	posts     *memPosts
	playlists *memPlaylists
	history   *memHistory
	relations *relations.InMemoryStore
	host      *fakeHost
	janitor   *recordingJanitor
	sessions  *auth.Manager
	subs      *stubSubscriptions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMemUsers()
	videos := newMemVideos()
	relStore := relations.NewInMemoryStore()
	host := newFakeHost()
	janitor := &recordingJanitor{}
	subs := &stubSubscriptions{}

	sessions := auth.NewManager(config.SessionConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}, users)

	env := &testEnv{
		mux:       http.NewServeMux(),
		users:     users,
		videos:    videos,
		comments:  newMemComments(),
		posts:     newMemPosts(),
		playlists: newMemPlaylists(videos),
		history:   newMemHistory(videos),
		relations: relStore,
		host:      host,
		janitor:   janitor,
		sessions:  sessions,
		subs:      subs,
	}

	RegisterRoutes(env.mux, Dependencies{
		Users:         users,
		Sessions:      sessions,
		Videos:        videos,
		Comments:      env.comments,
		Posts:         env.posts,
		Playlists:     env.playlists,
		Subscriptions: subs,
		History:       env.history,
		Stats:         stubStats{stats: models.ChannelStats{TotalVideos: 2, TotalViews: 40, TotalSubscribers: 3, TotalLikes: 5}},
		Toggler:       relations.NewToggler(relStore),
		Media:         host,
		Janitor:       janitor,
		RetryPolicy:   media.RetryPolicy{Attempts: 3, Backoff: time.Millisecond, AttemptTimeout: time.Second},
	})

	return env
}

// register creates an account directly in the store and issues it a session.
func (e *testEnv) register(t *testing.T, handle string) (models.User, models.TokenPair) {
	t.Helper()

	user, err := models.NewUser(handle, handle+"@example.com", handle, "password123")
	if err != nil {
		t.Fatalf("build user: %v", err)
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("store user: %v", err)
	}

	tokens, err := e.sessions.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return user, tokens
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
	return body
}
