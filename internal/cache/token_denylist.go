// Package cache holds the Redis-backed stores: issued question sets, the
// cached test configuration, auth tokens and the leaderboard.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iqscaler/iqscaler-backend/internal/config"
)

// TokenDenylist remembers logged-out token IDs until the token would have expired.
type TokenDenylist struct {
	rdb *redis.Client
}

// NewTokenDenylist creates a new TokenDenylist.
func NewTokenDenylist(rdb *redis.Client) *TokenDenylist {
	return &TokenDenylist{rdb: rdb}
}

// Revoke denies jti for ttl. A non-positive ttl is a no-op since the token is already expired.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, config.CacheKey.RevokedTokenKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti has been logged out.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.rdb.Get(ctx, config.CacheKey.RevokedTokenKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
