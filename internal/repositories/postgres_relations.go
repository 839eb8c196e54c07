package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/relations"
)

// PostgresRelationStore persists relation records (likes, subscriptions) to
// PostgreSQL. The primary key on (actor_id, kind, target_id) is the
// uniqueness constraint the toggle pattern relies on.
type PostgresRelationStore struct {
	pool db.Pool
}

// NewPostgresRelationStore constructs a relation store backed by PostgreSQL.
func NewPostgresRelationStore(pool db.Pool) *PostgresRelationStore {
	return &PostgresRelationStore{pool: pool}
}

// Create inserts a relation record; a duplicate composite key surfaces as
// relations.ErrRelationExists.
func (r *PostgresRelationStore) Create(ctx context.Context, rel relations.Relation) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO relations (actor_id, kind, target_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, rel.ActorID, string(rel.Kind), rel.TargetID, rel.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return relations.ErrRelationExists
		}
		return fmt.Errorf("insert relation: %w", err)
	}
	return nil
}

// Delete removes a relation record.
func (r *PostgresRelationStore) Delete(ctx context.Context, actor string, kind relations.Kind, target string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM relations
        WHERE actor_id = $1 AND kind = $2 AND target_id = $3
    `, actor, string(kind), target)
	if err != nil {
		return fmt.Errorf("delete relation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return relations.ErrRelationMissing
	}
	return nil
}

// Exists reports whether the relation record is present.
func (r *PostgresRelationStore) Exists(ctx context.Context, actor string, kind relations.Kind, target string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM relations
            WHERE actor_id = $1 AND kind = $2 AND target_id = $3
        )
    `, actor, string(kind), target)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("select relation existence: %w", err)
	}
	return exists, nil
}

// ListSubscribedChannels returns the channels the subscriber follows,
// each with its subscriber count.
func (r *PostgresRelationStore) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT u.handle, u.display_name, u.avatar,
               (SELECT COUNT(*) FROM relations c
                WHERE c.kind = 'subscription' AND c.target_id = u.id) AS subscriber_count
        FROM relations s
        JOIN users u ON u.id = s.target_id
        WHERE s.kind = 'subscription' AND s.actor_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("query subscribed channels: %w", err)
	}
	defer rows.Close()

	var channels []models.ChannelProfile
	for rows.Next() {
		var ch models.ChannelProfile
		if err := rows.Scan(&ch.Handle, &ch.DisplayName, &ch.Avatar, &ch.SubscriberCount); err != nil {
			return nil, fmt.Errorf("scan subscribed channel: %w", err)
		}
		ch.Subscribed = true
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribed channels: %w", err)
	}
	return channels, nil
}

// ListSubscribers returns the public profiles of a channel's subscribers.
func (r *PostgresRelationStore) ListSubscribers(ctx context.Context, channelID string) ([]models.PublicProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT u.handle, u.display_name, u.avatar
        FROM relations s
        JOIN users u ON u.id = s.actor_id
        WHERE s.kind = 'subscription' AND s.target_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []models.PublicProfile
	for rows.Next() {
		var p models.PublicProfile
		if err := rows.Scan(&p.Handle, &p.DisplayName, &p.Avatar); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return subscribers, nil
}

var _ relations.Store = (*PostgresRelationStore)(nil)
var _ SubscriptionRepository = (*PostgresRelationStore)(nil)
