package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agromind-server/config"
	"agromind-server/internal/metrics"
	"agromind-server/internal/model"
	"agromind-server/internal/ports"
	"agromind-server/internal/util"

	"github.com/redis/go-redis/v9"
)

// RevocationCache puts Redis in front of a revocation store.
// Only positive answers are cached, so a revocation is never hidden by a stale entry.
type RevocationCache struct {
	store   ports.RevocationStore
	client  *config.RedisClient
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewRevocationCache(store ports.RevocationStore, rdb *config.RedisClient, m *metrics.Metrics, log *slog.Logger) *RevocationCache {
	return &RevocationCache{
		store:   store,
		client:  rdb,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Revoke writes to the store first, then to Redis.
func (c *RevocationCache) Revoke(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) error {
	_, err := c.RevokeOnce(ctx, jti, kind, expiresAt)
	return err
}

// RevokeOnce leaves the decision to the store; Redis only mirrors the result.
func (c *RevocationCache) RevokeOnce(ctx context.Context, jti string, kind model.TokenKind, expiresAt time.Time) (bool, error) {
	inserted, err := c.store.RevokeOnce(ctx, jti, kind, expiresAt)
	if err != nil {
		return false, err
	}
	c.remember(ctx, jti, expiresAt)
	return inserted, nil
}

func (c *RevocationCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const op = "repository.RevocationCache.IsRevoked"

	if jti == "" {
		return true, nil
	}

	err := c.client.Client.Get(ctx, c.key(jti)).Err()
	switch {
	case err == nil:
		c.metrics.ObserveCache("hit")
		return true, nil
	case errors.Is(err, redis.Nil):
		c.metrics.ObserveCache("miss")
	default:
		c.metrics.ObserveCache("error")
		c.log.Warn("revocation cache unavailable, using database",
			slog.String("op", op), util.Err(err))
	}

	entry, err := c.store.Lookup(ctx, jti)
	if err != nil {
		return false, err
	}
	if entry == nil || !entry.Revoked {
		return false, nil
	}

	c.remember(ctx, jti, entry.ExpiresAt)
	return true, nil
}

func (c *RevocationCache) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	// cached keys expire with their tokens
	return c.store.PurgeExpired(ctx, before)
}

func (c *RevocationCache) remember(ctx context.Context, jti string, expiresAt time.Time) {
	ttl := expiresAt.Sub(c.now())
	if ttl <= 0 {
		return
	}
	if err := c.client.Client.Set(ctx, c.key(jti), "1", ttl).Err(); err != nil {
		c.log.Warn("failed to cache revocation",
			slog.String("op", "repository.RevocationCache.remember"), util.Err(err))
	}
}

func (c *RevocationCache) key(jti string) string {
	return fmt.Sprintf("revoked:%s", jti)
}
