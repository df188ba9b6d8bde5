// file: repository/revocation_cache.go

package repository

import (
	"context"
	"errors"
	"go-music-api/common"
	"go-music-api/logger"
	"go-music-api/model"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// RevocationCache puts Redis in front of a revocation repository.
// Only positive lookups are cached, so a new revocation is always visible
// through the backing store even if Redis is stale or down.
type RevocationCache struct {
	store IRevocationRepository
	cache ICacheClient
	now   func() time.Time
}

// NewRevocationCache wraps store with a Redis read-through cache.
func NewRevocationCache(store IRevocationRepository, cache ICacheClient) *RevocationCache {
	return &RevocationCache{store: store, cache: cache, now: time.Now}
}

func revokedKey(token string) string {
	return revokedKeyPrefix + common.TokenFingerprint(token)
}

// Find checks Redis first and falls back to the backing store on a miss or cache error.
func (c *RevocationCache) Find(ctx context.Context, token string) (*model.RevokedToken, error) {
	key := revokedKey(token)

	cached, err := c.cache.Get(ctx, key).Result()
	if err == nil {
		if unix, convErr := strconv.ParseInt(cached, 10, 64); convErr == nil {
			return &model.RevokedToken{Token: token, ExpiresAt: time.Unix(unix, 0)}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Log.WithError(err).Warn("Revocation cache read failed, falling back to database")
	}

	entry, err := c.store.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, key, entry.ExpiresAt)
	return entry, nil
}

// Insert writes to the backing store first; the cache write is best effort.
func (c *RevocationCache) Insert(ctx context.Context, token string, expiresAt time.Time) error {
	if err := c.store.Insert(ctx, token, expiresAt); err != nil {
		return err
	}
	c.remember(ctx, revokedKey(token), expiresAt)
	return nil
}

// PurgeExpired only touches the backing store; cached entries expire on their own TTL.
func (c *RevocationCache) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return c.store.PurgeExpired(ctx, before)
}

func (c *RevocationCache) remember(ctx context.Context, key string, expiresAt time.Time) {
	ttl := expiresAt.Sub(c.now())
	if ttl <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, strconv.FormatInt(expiresAt.Unix(), 10), ttl).Err(); err != nil {
		logger.Log.WithError(err).Warn("Failed to cache revoked token")
	}
}
