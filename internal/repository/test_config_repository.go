package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// TestConfigRepository stores the single active test configuration row.
type TestConfigRepository struct {
	pool *pgxpool.Pool
}

// NewTestConfigRepository creates a new TestConfigRepository.
func NewTestConfigRepository(pool *pgxpool.Pool) *TestConfigRepository {
	return &TestConfigRepository{pool: pool}
}

// Get returns the active configuration, or ErrNotFound before one is saved.
func (r *TestConfigRepository) Get(ctx context.Context) (*model.TestConfig, error) {
	cfg := &model.TestConfig{}
	err := r.pool.QueryRow(ctx,
		`SELECT duration_minutes, total_questions, difficulty_distribution, updated_at
		 FROM test_configs WHERE id = 1`,
	).Scan(&cfg.DurationMinutes, &cfg.TotalQuestions, &cfg.DifficultyDistribution, &cfg.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if cfg.DifficultyDistribution == nil {
		cfg.DifficultyDistribution = []model.DifficultyCount{}
	}
	return cfg, nil
}

// Upsert replaces the active configuration.
func (r *TestConfigRepository) Upsert(ctx context.Context, cfg *model.TestConfig) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO test_configs (id, duration_minutes, total_questions, difficulty_distribution)
		 VALUES (1, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET duration_minutes = EXCLUDED.duration_minutes,
		     total_questions = EXCLUDED.total_questions,
		     difficulty_distribution = EXCLUDED.difficulty_distribution,
		     updated_at = CURRENT_TIMESTAMP
		 RETURNING updated_at`,
		cfg.DurationMinutes, cfg.TotalQuestions, cfg.DifficultyDistribution,
	).Scan(&cfg.UpdatedAt)
}
