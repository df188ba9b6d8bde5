// file: repository/cache.go

package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the subset of the Redis client the revocation cache uses.
// *redis.Client satisfies it; tests substitute a mock.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}
