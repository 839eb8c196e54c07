package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cliptube/backend/internal/models"
)

type stubStatsRepository struct {
	stats models.ChannelStats
	err   error
	calls int
}

func (s *stubStatsRepository) ChannelStats(context.Context, string) (models.ChannelStats, error) {
	s.calls++
	if s.err != nil {
		return models.ChannelStats{}, s.err
	}
	return s.stats, nil
}

func TestCachingStatsRepository(t *testing.T) {
	base := &stubStatsRepository{stats: models.ChannelStats{TotalVideos: 3, TotalViews: 42}}
	cache := NewCachingStatsRepository(base, time.Minute)

	ctx := context.Background()

	stats, err := cache.ChannelStats(ctx, "channel-1")
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if stats.TotalViews != 42 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if base.calls != 1 {
		t.Fatalf("expected base called once got %d", base.calls)
	}

	if _, err := cache.ChannelStats(ctx, "channel-1"); err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected cached result got %d calls", base.calls)
	}

	if _, err := cache.ChannelStats(ctx, "channel-2"); err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected per-channel entries got %d calls", base.calls)
	}
}

func TestCachingStatsRepositoryErrorsNotCached(t *testing.T) {
	base := &stubStatsRepository{err: errors.New("boom")}
	cache := NewCachingStatsRepository(base, time.Minute)

	if _, err := cache.ChannelStats(context.Background(), "channel-1"); err == nil {
		t.Fatal("expected error")
	}

	base.err = nil
	base.stats = models.ChannelStats{TotalVideos: 1}
	stats, err := cache.ChannelStats(context.Background(), "channel-1")
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if stats.TotalVideos != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if base.calls != 2 {
		t.Fatalf("expected retry after error got %d calls", base.calls)
	}
}

func TestCachingStatsRepositoryExpiry(t *testing.T) {
	base := &stubStatsRepository{stats: models.ChannelStats{TotalSubscribers: 7}}
	cache := NewCachingStatsRepository(base, time.Millisecond)

	if _, err := cache.ChannelStats(context.Background(), "channel-1"); err != nil {
		t.Fatalf("channel stats: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := cache.ChannelStats(context.Background(), "channel-1"); err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected cache miss after expiry got %d calls", base.calls)
	}
}
