package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/config"
	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/handlers"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/middleware"
	"github.com/cliptube/backend/internal/relations"
	"github.com/cliptube/backend/internal/repositories"
)

const statsCacheTTL = 30 * time.Second

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the media janitor.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	relationStore := repositories.NewPostgresRelationStore(pool)

	retryPolicy := media.RetryPolicy{
		Attempts:       cfg.Media.DeleteAttempts,
		Backoff:        cfg.Media.DeleteBackoff,
		AttemptTimeout: cfg.Media.DeleteTimeout,
	}

	host, err := media.NewS3Host(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	janitor := media.NewJanitor(host, media.JanitorConfig{Policy: retryPolicy}, logger)

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      auth.NewManager(cfg.Session, users),
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Posts:         repositories.NewPostgresPostRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Subscriptions: relationStore,
		History:       repositories.NewPostgresWatchHistoryRepository(pool),
		Stats:         repositories.NewCachingStatsRepository(repositories.NewPostgresStatsRepository(pool), statsCacheTTL),
		Toggler:       relations.NewToggler(relationStore),
		Media:         host,
		Janitor:       janitor,
		RetryPolicy:   retryPolicy,
		AuthLimiter: middleware.NewIPRateLimiter(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			cfg.RateLimit.Burst,
			cfg.RateLimit.TTL,
		),
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		UploadTimeout:  cfg.Media.UploadTimeout,
	}

	cleanup := func(ctx context.Context) error {
		return janitor.Shutdown(ctx)
	}

	return deps, cleanup, nil
}
