package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iqscaler/iqscaler-backend/internal/config"
	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// Leaderboard keeps every user's best score in a sorted set, the entry details
// in a hash, and announces changes on a PubSub channel.
type Leaderboard struct {
	rdb *redis.Client
}

// NewLeaderboard creates a new Leaderboard.
func NewLeaderboard(rdb *redis.Client) *Leaderboard {
	return &Leaderboard{rdb: rdb}
}

// Enqueue pushes a fresh result onto the worker queue.
func (l *Leaderboard) Enqueue(ctx context.Context, e model.LeaderboardEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return l.rdb.RPush(ctx, config.WorkerKey.LeaderboardQueue, raw).Err()
}

// Pop blocks up to timeout for the next queued entry. It returns nil, nil on timeout.
func (l *Leaderboard) Pop(ctx context.Context, timeout time.Duration) (*model.LeaderboardEntry, error) {
	result, err := l.rdb.BLPop(ctx, timeout, config.WorkerKey.LeaderboardQueue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BLPop returns [key, value]
	if len(result) < 2 {
		return nil, nil
	}
	var e model.LeaderboardEntry
	if err := json.Unmarshal([]byte(result[1]), &e); err != nil {
		return nil, fmt.Errorf("decode queued entry: %w", err)
	}
	return &e, nil
}

// Apply raises the stored score of every entry's user when the entry improves
// on it, and returns the entries that changed the board.
func (l *Leaderboard) Apply(ctx context.Context, entries []model.LeaderboardEntry) ([]model.LeaderboardEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	scoresKey := config.CacheKey.LeaderboardScoresKey()
	pipe := l.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(entries))
	for i, e := range entries {
		cmds[i] = pipe.ZAddArgs(ctx, scoresKey, redis.ZAddArgs{
			GT:      true,
			Ch:      true,
			Members: []redis.Z{{Score: float64(e.MaxScore), Member: e.UserID.String()}},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("update scores: %w", err)
	}

	changed := make([]model.LeaderboardEntry, 0, len(entries))
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			changed = append(changed, entries[i])
		}
	}
	if len(changed) == 0 {
		return nil, nil
	}

	details := make(map[string]interface{}, len(changed))
	for _, e := range changed {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		details[e.UserID.String()] = raw
	}
	if err := l.rdb.HSet(ctx, config.CacheKey.LeaderboardEntriesKey(), details).Err(); err != nil {
		return nil, fmt.Errorf("store entries: %w", err)
	}
	return changed, nil
}

// Publish announces changed entries to live subscribers.
func (l *Leaderboard) Publish(ctx context.Context, changed []model.LeaderboardEntry) error {
	raw, err := json.Marshal(changed)
	if err != nil {
		return err
	}
	return l.rdb.Publish(ctx, config.CacheKey.LeaderboardChannel(), raw).Err()
}

// Subscribe opens a subscription to leaderboard changes. The caller closes it.
func (l *Leaderboard) Subscribe(ctx context.Context) *redis.PubSub {
	return l.rdb.Subscribe(ctx, config.CacheKey.LeaderboardChannel())
}

// Top returns the best n entries, highest first. An empty board returns an empty slice.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	ids, err := l.rdb.ZRevRange(ctx, config.CacheKey.LeaderboardScoresKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	raws, err := l.rdb.HMGet(ctx, config.CacheKey.LeaderboardEntriesKey(), ids...).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]model.LeaderboardEntry, 0, len(raws))
	for i, raw := range raws {
		s, ok := raw.(string)
		if !ok {
			// score without details; skip until the worker rewrites it
			continue
		}
		var e model.LeaderboardEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode entry for %s: %w", ids[i], err)
		}
		entries = append(entries, e)
	}
	// the sorted set breaks score ties by member; the board breaks them by test date
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Beats(entries[j]) })
	return entries, nil
}

// Reset rebuilds the board from entries, replacing whatever was stored.
func (l *Leaderboard) Reset(ctx context.Context, entries []model.LeaderboardEntry) error {
	pipe := l.rdb.TxPipeline()
	pipe.Del(ctx, config.CacheKey.LeaderboardScoresKey(), config.CacheKey.LeaderboardEntriesKey())
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return err
		}
		pipe.ZAdd(ctx, config.CacheKey.LeaderboardScoresKey(), redis.Z{Score: float64(e.MaxScore), Member: e.UserID.String()})
		pipe.HSet(ctx, config.CacheKey.LeaderboardEntriesKey(), e.UserID.String(), raw)
	}
	_, err := pipe.Exec(ctx)
	return err
}
