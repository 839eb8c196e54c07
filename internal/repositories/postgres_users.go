package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresUserRepository provides PostgreSQL-backed persistence for accounts.
// It also implements auth.AccountStore: the account row carries the single
// live refresh token.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, handle, email, display_name, avatar, cover_image, password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Handle, &user.Email, &user.DisplayName, &user.Avatar,
		&user.CoverImage, &user.PasswordHash, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// Create persists a new account record. Duplicate handle or email surfaces
// as ErrConflict via the unique indexes.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, handle, email, display_name, avatar, cover_image, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.Handle, user.Email, user.DisplayName, user.Avatar, user.CoverImage,
		user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches an account by identity.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}
	return user, nil
}

// FindByHandleOrEmail fetches an account by either unique identifier,
// case-normalized.
func (r *PostgresUserRepository) FindByHandleOrEmail(ctx context.Context, identifier string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	identifier = strings.ToLower(strings.TrimSpace(identifier))
	row := conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE handle = $1 OR email = $1
    `, identifier)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by handle or email: %w", err)
	}
	return user, nil
}

// Update modifies the mutable profile fields of an account.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET handle = $2, email = $3, display_name = $4, avatar = $5, cover_image = $6,
            password_hash = $7, updated_at = $8
        WHERE id = $1
    `, user.ID, user.Handle, user.Email, user.DisplayName, user.Avatar, user.CoverImage,
		user.PasswordHash, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account. Dependent rows cascade via foreign keys.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken unconditionally overwrites the stored refresh token.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, userID, token)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapRefreshToken replaces the stored token only when it currently equals
// previous. The equality check and the write share one statement, so two
// concurrent rotations presenting the same token cannot both succeed.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, userID, previous, next string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $3
        WHERE id = $1 AND refresh_token = $2
    `, userID, previous, next)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrStaleRefreshToken
	}
	return nil
}

// ClearRefreshToken removes the stored token, killing every outstanding
// refresh token for the account.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChannelProfile resolves the channel view of an account by handle, with
// subscriber counts and whether the viewer is subscribed. Only public
// profile fields are projected.
func (r *PostgresUserRepository) ChannelProfile(ctx context.Context, handle, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.handle, u.display_name, u.avatar, u.cover_image, u.email,
               (SELECT COUNT(*) FROM relations s
                WHERE s.kind = 'subscription' AND s.target_id = u.id) AS subscriber_count,
               (SELECT COUNT(*) FROM relations s
                WHERE s.kind = 'subscription' AND s.actor_id = u.id) AS subscribed_to_count,
               EXISTS (SELECT 1 FROM relations s
                       WHERE s.kind = 'subscription' AND s.target_id = u.id AND s.actor_id = $2)
        FROM users u
        WHERE u.handle = $1
    `, strings.ToLower(strings.TrimSpace(handle)), viewerID)

	var profile models.ChannelProfile
	if err := row.Scan(&profile.Handle, &profile.DisplayName, &profile.Avatar, &profile.CoverImage,
		&profile.Email, &profile.SubscriberCount, &profile.SubscribedToCount, &profile.Subscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}
	return profile, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ auth.AccountStore = (*PostgresUserRepository)(nil)
