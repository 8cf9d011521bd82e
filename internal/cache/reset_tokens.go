package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iqscaler/iqscaler-backend/internal/config"
)

// ResetTokens maps hashed password reset tokens to the user they were issued for.
type ResetTokens struct {
	rdb *redis.Client
}

// NewResetTokens creates a new ResetTokens store.
func NewResetTokens(rdb *redis.Client) *ResetTokens {
	return &ResetTokens{rdb: rdb}
}

// SaveResetToken stores tokenHash for userID until ttl passes.
func (r *ResetTokens) SaveResetToken(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	return r.rdb.Set(ctx, config.CacheKey.PasswordResetKey(tokenHash), userID.String(), ttl).Err()
}

// TakeResetToken returns the user of tokenHash and deletes it, so a token works
// once. It returns uuid.Nil for unknown or expired tokens.
func (r *ResetTokens) TakeResetToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	raw, err := r.rdb.GetDel(ctx, config.CacheKey.PasswordResetKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(raw)
}
