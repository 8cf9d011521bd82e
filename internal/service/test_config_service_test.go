package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

func TestTestConfigDefaultsAreCreated(t *testing.T) {
	store := &fakeConfigStore{}
	cache := &fakeConfigCache{}
	svc := NewTestConfigService(store, cache, zerolog.Nop())

	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.DurationMinutes != 15 || cfg.TotalQuestions != 15 || len(cfg.DifficultyDistribution) != 0 {
		t.Errorf("default config = %+v", cfg)
	}
	if store.upserts != 1 {
		t.Errorf("upserts = %d, want 1", store.upserts)
	}
	if cache.cfg == nil {
		t.Error("config was not cached")
	}

	if _, err := svc.Get(context.Background()); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if store.upserts != 1 {
		t.Errorf("upserts after cached read = %d, want 1", store.upserts)
	}
}

func TestTestConfigCacheFailureFallsBackToStore(t *testing.T) {
	store := &fakeConfigStore{cfg: &model.TestConfig{DurationMinutes: 20, TotalQuestions: 10}}
	svc := NewTestConfigService(store, &fakeConfigCache{err: errors.New("redis down")}, zerolog.Nop())

	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.DurationMinutes != 20 {
		t.Errorf("DurationMinutes = %d, want 20", cfg.DurationMinutes)
	}
}

func TestTestConfigUpdate(t *testing.T) {
	tests := []struct {
		name    string
		req     model.UpdateTestConfigRequest
		wantErr bool
	}{
		{
			name: "distribution within total",
			req: model.UpdateTestConfigRequest{DurationMinutes: 30, TotalQuestions: 20, DifficultyDistribution: []model.DifficultyCount{
				{Difficulty: model.DifficultyEasy, Count: 5}, {Difficulty: model.DifficultyHard, Count: 15},
			}},
		},
		{
			name: "distribution exceeds total",
			req: model.UpdateTestConfigRequest{DurationMinutes: 30, TotalQuestions: 10, DifficultyDistribution: []model.DifficultyCount{
				{Difficulty: model.DifficultyEasy, Count: 6}, {Difficulty: model.DifficultyHard, Count: 5},
			}},
			wantErr: true,
		},
		{
			name: "difficulty listed twice",
			req: model.UpdateTestConfigRequest{DurationMinutes: 30, TotalQuestions: 10, DifficultyDistribution: []model.DifficultyCount{
				{Difficulty: model.DifficultyEasy, Count: 1}, {Difficulty: model.DifficultyEasy, Count: 1},
			}},
			wantErr: true,
		},
		{
			name:    "zero duration",
			req:     model.UpdateTestConfigRequest{DurationMinutes: 0, TotalQuestions: 10},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeConfigStore{}
			cache := &fakeConfigCache{}
			svc := NewTestConfigService(store, cache, zerolog.Nop())

			cfg, err := svc.Update(context.Background(), tt.req)
			if tt.wantErr {
				if !errors.Is(err, model.ErrTestConfigInvalid) {
					t.Fatalf("err = %v, want ErrTestConfigInvalid", err)
				}
				if store.upserts != 0 {
					t.Error("invalid config was stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if cfg.TotalQuestions != tt.req.TotalQuestions || cache.cfg == nil || cache.cfg.TotalQuestions != tt.req.TotalQuestions {
				t.Errorf("stored %+v cached %+v", cfg, cache.cfg)
			}
		})
	}
}
