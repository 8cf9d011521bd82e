package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
)

var (
	ErrResultNotFound = errors.New("result not found")
	ErrNotResultOwner = errors.New("result belongs to another user")
)

// ResultService exposes stored results and the leaderboard.
type ResultService struct {
	results ResultStore
	board   LeaderboardBoard
	size    int
	log     zerolog.Logger
}

// NewResultService creates a new ResultService. size caps the leaderboard.
func NewResultService(results ResultStore, board LeaderboardBoard, size int, log zerolog.Logger) *ResultService {
	if size <= 0 {
		size = 10
	}
	return &ResultService{
		results: results,
		board:   board,
		size:    size,
		log:     log.With().Str("component", "result_service").Logger(),
	}
}

// Get returns a result to its owner or to an admin.
func (s *ResultService) Get(ctx context.Context, id uuid.UUID, viewer *Claims) (*model.Result, error) {
	res, err := s.results.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	if res.UserID != viewer.UserID && !viewer.IsAdmin() {
		return nil, ErrNotResultOwner
	}
	return res, nil
}

// ListMine returns a page of the user's results, newest first.
func (s *ResultService) ListMine(ctx context.Context, userID uuid.UUID, q model.ResultListQuery) ([]model.Result, int, error) {
	page, perPage := NormalizePage(q.Page, q.PerPage)
	return s.results.ListByUser(ctx, userID, perPage, (page-1)*perPage)
}

// Size is the number of entries the leaderboard shows.
func (s *ResultService) Size() int {
	return s.size
}

// Leaderboard returns the best result of each user, highest first.
// The Redis board is rebuilt from Postgres when it is empty or unreachable.
func (s *ResultService) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	entries, err := s.board.Top(ctx, s.size)
	if err == nil && len(entries) > 0 {
		return entries, nil
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Leaderboard cache read failed, using database")
	}

	entries, err = s.results.Leaderboard(ctx, s.size)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if len(entries) > 0 {
		if err := s.board.Reset(ctx, entries); err != nil {
			s.log.Warn().Err(err).Msg("Leaderboard cache rebuild failed")
		}
	}
	return entries, nil
}
