package repositories

import (
	"context"
	"fmt"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

// PostgresStatsRepository aggregates the dashboard numbers for a channel.
type PostgresStatsRepository struct {
	pool db.Pool
}

// NewPostgresStatsRepository constructs a stats repository backed by PostgreSQL.
func NewPostgresStatsRepository(pool db.Pool) *PostgresStatsRepository {
	return &PostgresStatsRepository{pool: pool}
}

// ChannelStats counts the channel's videos, views, subscribers, and the likes
// received across all of its videos.
func (r *PostgresStatsRepository) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM videos v WHERE v.owner_id = $1),
            (SELECT COALESCE(SUM(v.views), 0) FROM videos v WHERE v.owner_id = $1),
            (SELECT COUNT(*) FROM relations s WHERE s.kind = 'subscription' AND s.target_id = $1),
            (SELECT COUNT(*) FROM relations l
             JOIN videos v ON v.id = l.target_id
             WHERE l.kind = 'video_like' AND v.owner_id = $1)
    `, channelID)

	var stats models.ChannelStats
	if err := row.Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalSubscribers, &stats.TotalLikes); err != nil {
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}
	return stats, nil
}

var _ StatsRepository = (*PostgresStatsRepository)(nil)
