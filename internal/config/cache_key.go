package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RevokedTokenKey returns the denylist key for a logged-out token ID.
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// PasswordResetKey returns the key holding the user of a hashed reset token.
func (r *CacheKeyStruct) PasswordResetKey(tokenHash string) string {
	return fmt.Sprintf("auth:reset:%s", tokenHash)
}

// IssuedQuestionsKey returns the key holding the ordered question IDs last issued to a user.
func (r *CacheKeyStruct) IssuedQuestionsKey(userID string) string {
	return fmt.Sprintf("user:%s:issued_questions", userID)
}

// TestConfigKey returns the key of the cached active test configuration.
func (r *CacheKeyStruct) TestConfigKey() string {
	return "test_config:active"
}

// LeaderboardScoresKey returns the sorted set of best scores keyed by user ID.
func (r *CacheKeyStruct) LeaderboardScoresKey() string {
	return "leaderboard:scores"
}

// LeaderboardEntriesKey returns the hash of leaderboard entry details keyed by user ID.
func (r *CacheKeyStruct) LeaderboardEntriesKey() string {
	return "leaderboard:entries"
}

// LeaderboardChannel returns the Redis PubSub channel leaderboard changes are published on.
func (r *CacheKeyStruct) LeaderboardChannel() string {
	return "leaderboard:updates"
}

var CacheKey = NewCacheKeyStruct()
