package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/cliptube/backend/internal/models"
)

type statsEntry struct {
	stats   models.ChannelStats
	expires time.Time
}

// CachingStatsRepository wraps another StatsRepository with a TTL-based
// in-memory cache. Dashboard counts tolerate brief staleness, so repeated
// loads within the TTL skip the aggregate queries.
type CachingStatsRepository struct {
	base StatsRepository
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]statsEntry
}

// NewCachingStatsRepository returns a StatsRepository that caches lookups for
// the provided TTL.
func NewCachingStatsRepository(base StatsRepository, ttl time.Duration) *CachingStatsRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingStatsRepository{
		base:  base,
		ttl:   ttl,
		items: make(map[string]statsEntry),
	}
}

// ChannelStats returns cached stats when available, otherwise it delegates to
// the underlying repository and stores the result.
func (c *CachingStatsRepository) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[channelID]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.stats, nil
	}

	stats, err := c.base.ChannelStats(ctx, channelID)
	if err != nil {
		return models.ChannelStats{}, err
	}

	c.mu.Lock()
	c.items[channelID] = statsEntry{stats: stats, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return stats, nil
}

var _ StatsRepository = (*CachingStatsRepository)(nil)
