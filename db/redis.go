// file: db/redis.go

package db

import (
	"context"
	"fmt"
	"go-music-api/config"
	"go-music-api/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for the revocation cache, or nil when no
// Redis host is configured.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		logger.Log.Info("Redis not configured, revocation cache disabled")
		return nil, nil
	}

	redisAddr := fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		logger.Log.WithError(err).Error("Failed to ping Redis")
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Log.WithField("address", redisAddr).Info("Redis connection established successfully")
	return rdb, nil
}
