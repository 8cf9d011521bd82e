package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iqscaler/iqscaler-backend/internal/config"
	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// QuizCache stores per-user issued question sets and the active test configuration.
type QuizCache struct {
	rdb *redis.Client
}

// NewQuizCache creates a new QuizCache.
func NewQuizCache(rdb *redis.Client) *QuizCache {
	return &QuizCache{rdb: rdb}
}

// SaveIssued replaces the question set last issued to userID.
func (c *QuizCache) SaveIssued(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, ttl time.Duration) error {
	key := config.CacheKey.IssuedQuestionsKey(userID.String())
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id.String()
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.RPush(ctx, key, members...)
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// TakeIssued returns the question ids last issued to userID in delivery order
// and forgets them in the same transaction, so a set is graded at most once.
// It returns nil when none are remembered.
func (c *QuizCache) TakeIssued(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	key := config.CacheKey.IssuedQuestionsKey(userID.String())

	pipe := c.rdb.TxPipeline()
	lrange := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	raw := lrange.Val()
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("corrupt issued question id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TestConfig returns the cached configuration, or nil on a cache miss.
func (c *QuizCache) TestConfig(ctx context.Context) (*model.TestConfig, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.TestConfigKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg model.TestConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode cached test config: %w", err)
	}
	return &cfg, nil
}

// SetTestConfig caches cfg until it is replaced.
func (c *QuizCache) SetTestConfig(ctx context.Context, cfg model.TestConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, config.CacheKey.TestConfigKey(), raw, 0).Err()
}

// InvalidateTestConfig drops the cached configuration.
func (c *QuizCache) InvalidateTestConfig(ctx context.Context) error {
	return c.rdb.Del(ctx, config.CacheKey.TestConfigKey()).Err()
}
