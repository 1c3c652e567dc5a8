package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foxyhq/foxyfetch/internal/callback"
)

// CallbackCache is the persisted side of the callback reference cache:
// hashed URL payloads survive restarts and expire after the configured
// TTL. It implements callback.Cache.
type CallbackCache struct {
	logger *slog.Logger
	db     DBTX
	ttl    time.Duration
}

func NewCallbackCache(log *slog.Logger, db DBTX, ttl time.Duration) *CallbackCache {
	return &CallbackCache{
		logger: log.With(slog.String("service", "callback-cache")),
		db:     db,
		ttl:    ttl,
	}
}

// Put stores or refreshes the key, resetting its expiry.
func (c *CallbackCache) Put(ctx context.Context, key, url string) error {
	query := `
		INSERT INTO callback_cache (key, url, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET url = EXCLUDED.url, expires_at = EXCLUDED.expires_at`

	if _, err := c.db.Exec(ctx, query, key, url, time.Now().Add(c.ttl)); err != nil {
		return fmt.Errorf("put callback reference: %w", err)
	}
	return nil
}

// Get resolves the key, treating expired entries as absent.
func (c *CallbackCache) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT url FROM callback_cache WHERE key = $1 AND expires_at > now()`

	var url string
	err := c.db.QueryRow(ctx, query, key).Scan(&url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", callback.ErrUnknownReference
		}
		return "", fmt.Errorf("get callback reference: %w", err)
	}
	return url, nil
}

// PurgeExpired removes entries past their expiry. Run periodically;
// Get already ignores expired rows, this only reclaims space.
func (c *CallbackCache) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := c.db.Exec(ctx, `DELETE FROM callback_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge callback references: %w", err)
	}

	if n := tag.RowsAffected(); n > 0 {
		c.logger.Info("purged expired callback references", slog.Int64("count", n))
		return n, nil
	}
	return 0, nil
}
