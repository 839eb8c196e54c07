package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

// videoSortColumns whitelists caller-chosen sort fields. An unknown field
// falls back to creation time rather than reaching the query verbatim.
var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"title":     "v.title",
	"duration":  "v.duration",
	"views":     "v.views",
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoSummaryColumns = `
        v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
        v.duration, v.views, v.published, v.created_at, v.updated_at,
        u.handle, u.display_name, u.avatar,
        (SELECT COUNT(*) FROM relations l WHERE l.kind = 'video_like' AND l.target_id = v.id) AS like_count`

func scanVideoSummary(row pgx.Row) (models.VideoSummary, error) {
	var s models.VideoSummary
	err := row.Scan(&s.ID, &s.OwnerID, &s.VideoURL, &s.ThumbnailURL, &s.Title, &s.Description,
		&s.Duration, &s.Views, &s.Published, &s.CreatedAt, &s.UpdatedAt,
		&s.Owner.Handle, &s.Owner.DisplayName, &s.Owner.Avatar, &s.LikeCount)
	return s, err
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration, views, published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoURL, video.ThumbnailURL, video.Title, video.Description,
		video.Duration, video.Views, video.Published, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindByID fetches the bare video row.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, video_url, thumbnail_url, title, description, duration, views, published, created_at, updated_at
        FROM videos
        WHERE id = $1
    `, id)

	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.VideoURL, &video.ThumbnailURL, &video.Title,
		&video.Description, &video.Duration, &video.Views, &video.Published, &video.CreatedAt, &video.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// Get resolves a video with its owner's public profile and like count.
func (r *PostgresVideoRepository) Get(ctx context.Context, id string) (models.VideoSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoSummary{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoSummaryColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.id = $1
    `, id)

	summary, err := scanVideoSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoSummary{}, ErrNotFound
		}
		return models.VideoSummary{}, fmt.Errorf("select video summary: %w", err)
	}
	return summary, nil
}

// List returns a page of videos denormalized with owner profiles and like
// counts, filtered and sorted per the options.
func (r *PostgresVideoRepository) List(ctx context.Context, opts VideoListOptions) ([]models.VideoSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	sortColumn, ok := videoSortColumns[opts.SortBy]
	if !ok {
		sortColumn = videoSortColumns["createdAt"]
	}
	direction := "DESC"
	if opts.Order == OrderAscending {
		direction = "ASC"
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	query := `
        SELECT ` + videoSummaryColumns + `
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE ($1 = '' OR v.owner_id = $1)
          AND ($2 = '' OR v.title ILIKE '%' || $2 || '%')
          AND (NOT $3 OR v.published)
        ORDER BY ` + sortColumn + ` ` + direction + `, v.id
        LIMIT $4 OFFSET $5
    `

	rows, err := conn.Query(ctx, query, opts.OwnerID, opts.TitleQuery, opts.PublishedOnly,
		limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	return collectVideoSummaries(rows)
}

// Update modifies a video's mutable fields.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, published = $5, updated_at = $6
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.ThumbnailURL, video.Published, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a video record. Likes, comments, playlist entries, and
// watch-history rows cascade.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter atomically in the store.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLikedBy returns the videos the user has liked, newest like first.
func (r *PostgresVideoRepository) ListLikedBy(ctx context.Context, userID string) ([]models.VideoSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoSummaryColumns+`
        FROM relations liked
        JOIN videos v ON v.id = liked.target_id
        JOIN users u ON u.id = v.owner_id
        WHERE liked.kind = 'video_like' AND liked.actor_id = $1
        ORDER BY liked.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	return collectVideoSummaries(rows)
}

func collectVideoSummaries(rows pgx.Rows) ([]models.VideoSummary, error) {
	var summaries []models.VideoSummary
	for rows.Next() {
		summary, err := scanVideoSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video summaries: %w", err)
	}
	return summaries, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
