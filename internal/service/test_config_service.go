package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
)

// TestConfigService reads and replaces the active test configuration.
type TestConfigService struct {
	store TestConfigStore
	cache TestConfigCache
	log   zerolog.Logger
}

// NewTestConfigService creates a new TestConfigService.
func NewTestConfigService(store TestConfigStore, cache TestConfigCache, log zerolog.Logger) *TestConfigService {
	return &TestConfigService{
		store: store,
		cache: cache,
		log:   log.With().Str("component", "test_config_service").Logger(),
	}
}

// Get returns the active configuration: cache, then Postgres, then the
// defaults, which are saved so every later read agrees.
func (s *TestConfigService) Get(ctx context.Context) (model.TestConfig, error) {
	if cached, err := s.cache.TestConfig(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Test config cache read failed")
	} else if cached != nil {
		return *cached, nil
	}

	stored, err := s.store.Get(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		def := model.DefaultTestConfig()
		if err := s.store.Upsert(ctx, &def); err != nil {
			return model.TestConfig{}, fmt.Errorf("create default test config: %w", err)
		}
		stored = &def
	default:
		return model.TestConfig{}, fmt.Errorf("get test config: %w", err)
	}

	if err := s.cache.SetTestConfig(ctx, *stored); err != nil {
		s.log.Warn().Err(err).Msg("Test config cache write failed")
	}
	return *stored, nil
}

// Update validates and replaces the active configuration.
func (s *TestConfigService) Update(ctx context.Context, req model.UpdateTestConfigRequest) (model.TestConfig, error) {
	cfg := req.ToConfig()
	if err := cfg.Validate(); err != nil {
		return model.TestConfig{}, err
	}
	if err := s.store.Upsert(ctx, &cfg); err != nil {
		return model.TestConfig{}, fmt.Errorf("save test config: %w", err)
	}
	if err := s.cache.SetTestConfig(ctx, cfg); err != nil {
		// a stale cache would serve the old config; drop it instead
		s.log.Warn().Err(err).Msg("Test config cache write failed")
		_ = s.cache.InvalidateTestConfig(ctx)
	}

	s.log.Info().
		Int("duration_minutes", cfg.DurationMinutes).
		Int("total_questions", cfg.TotalQuestions).
		Msg("Test config updated")
	return cfg, nil
}
