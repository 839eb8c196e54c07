package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

// PostgresWatchHistoryRepository records which videos an account watched.
// Re-watching a video moves it to the front of the history rather than
// producing a duplicate row.
type PostgresWatchHistoryRepository struct {
	pool db.Pool
}

// NewPostgresWatchHistoryRepository constructs a watch-history repository
// backed by PostgreSQL.
func NewPostgresWatchHistoryRepository(pool db.Pool) *PostgresWatchHistoryRepository {
	return &PostgresWatchHistoryRepository{pool: pool}
}

// Record upserts a watch entry, refreshing its timestamp on conflict.
func (r *PostgresWatchHistoryRepository) Record(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("record watch entry: %w", err)
	}
	return nil
}

// List returns the account's watch history, most recent first.
func (r *PostgresWatchHistoryRepository) List(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoSummaryColumns+`
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE h.user_id = $1
        ORDER BY h.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	return collectVideoSummaries(rows)
}

var _ WatchHistoryRepository = (*PostgresWatchHistoryRepository)(nil)
