package model

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultDurationMinutes = 15
	DefaultTotalQuestions  = 15
)

// DifficultyCount asks for a number of questions of one difficulty.
type DifficultyCount struct {
	Difficulty Difficulty `json:"difficulty" binding:"required,difficulty"`
	Count      int        `json:"count" binding:"min=0,max=500"`
}

// TestConfig is the single active configuration every test is generated from.
type TestConfig struct {
	DurationMinutes        int               `json:"durationMinutes"`
	TotalQuestions         int               `json:"totalQuestions"`
	DifficultyDistribution []DifficultyCount `json:"difficultyDistribution"`
	UpdatedAt              time.Time         `json:"updatedAt"`
}

// DefaultTestConfig returns the configuration used before an admin saves one.
func DefaultTestConfig() TestConfig {
	return TestConfig{
		DurationMinutes:        DefaultDurationMinutes,
		TotalQuestions:         DefaultTotalQuestions,
		DifficultyDistribution: []DifficultyCount{},
	}
}

// TotalSeconds is the test duration in seconds.
func (c TestConfig) TotalSeconds() int {
	return c.DurationMinutes * 60
}

// Duration is the test duration as a time.Duration.
func (c TestConfig) Duration() time.Duration {
	return time.Duration(c.DurationMinutes) * time.Minute
}

// CountFor returns the requested count for a difficulty, or 0.
func (c TestConfig) CountFor(d Difficulty) int {
	for _, dc := range c.DifficultyDistribution {
		if dc.Difficulty == d {
			return dc.Count
		}
	}
	return 0
}

// ErrTestConfigInvalid is wrapped by every error Validate returns.
var ErrTestConfigInvalid = errors.New("invalid test configuration")

// Validate checks duration, total and that the distribution fits into the total.
func (c TestConfig) Validate() error {
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrTestConfigInvalid)
	}
	if c.TotalQuestions <= 0 {
		return fmt.Errorf("%w: total questions must be positive", ErrTestConfigInvalid)
	}
	seen := make(map[Difficulty]bool, len(c.DifficultyDistribution))
	sum := 0
	for _, dc := range c.DifficultyDistribution {
		if !dc.Difficulty.Valid() {
			return fmt.Errorf("%w: unknown difficulty %q", ErrTestConfigInvalid, dc.Difficulty)
		}
		if seen[dc.Difficulty] {
			return fmt.Errorf("%w: difficulty %q listed twice", ErrTestConfigInvalid, dc.Difficulty)
		}
		seen[dc.Difficulty] = true
		if dc.Count < 0 {
			return fmt.Errorf("%w: count for %q is negative", ErrTestConfigInvalid, dc.Difficulty)
		}
		sum += dc.Count
	}
	if sum > c.TotalQuestions {
		return fmt.Errorf("%w: distribution asks for %d questions but the test has %d", ErrTestConfigInvalid, sum, c.TotalQuestions)
	}
	return nil
}

// UpdateTestConfigRequest is the admin body for replacing the active configuration.
type UpdateTestConfigRequest struct {
	DurationMinutes        int               `json:"durationMinutes" binding:"required,min=1,max=480"`
	TotalQuestions         int               `json:"totalQuestions" binding:"required,min=1,max=500"`
	DifficultyDistribution []DifficultyCount `json:"difficultyDistribution" binding:"omitempty,max=3,dive"`
}

// ToConfig converts the request into a TestConfig.
func (r *UpdateTestConfigRequest) ToConfig() TestConfig {
	dist := make([]DifficultyCount, 0, len(r.DifficultyDistribution))
	dist = append(dist, r.DifficultyDistribution...)
	return TestConfig{
		DurationMinutes:        r.DurationMinutes,
		TotalQuestions:         r.TotalQuestions,
		DifficultyDistribution: dist,
	}
}
