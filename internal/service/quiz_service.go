package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/scoring"
)

var (
	ErrNoQuestionsAvailable = errors.New("no questions available")
	// ErrNoActiveTest is returned when a submission has no issued question
	// set to grade against: no test was drawn, it expired, or it was
	// already submitted.
	ErrNoActiveTest = errors.New("no active test to submit")
)

// ConfigProvider returns the active test configuration.
type ConfigProvider interface {
	Get(ctx context.Context) (model.TestConfig, error)
}

// QuizService delivers tests and grades submissions.
type QuizService struct {
	questions QuestionStore
	results   ResultStore
	configs   ConfigProvider
	issued    IssuedSetStore
	board     LeaderboardQueue
	engine    *scoring.Engine
	grace     time.Duration
	newRand   func() *rand.Rand
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	questions QuestionStore,
	results ResultStore,
	configs ConfigProvider,
	issued IssuedSetStore,
	board LeaderboardQueue,
	grace time.Duration,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		questions: questions,
		results:   results,
		configs:   configs,
		issued:    issued,
		board:     board,
		engine:    scoring.Default(),
		grace:     grace,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		log: log.With().Str("component", "quiz_service").Logger(),
	}
}

// Questions draws a fresh test for userID and remembers which questions were
// issued. The delivered questions never carry the correct answer.
func (s *QuizService) Questions(ctx context.Context, userID uuid.UUID) ([]model.QuestionForUser, error) {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := s.questions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	selected := SelectQuestions(pool, cfg, s.newRand())

	ids := make([]uuid.UUID, len(selected))
	out := make([]model.QuestionForUser, len(selected))
	for i := range selected {
		ids[i] = selected[i].ID
		out[i] = selected[i].ForUser()
	}

	if err := s.issued.SaveIssued(ctx, userID, ids, cfg.Duration()+s.grace); err != nil {
		return nil, fmt.Errorf("remember issued questions: %w", err)
	}

	s.log.Debug().
		Str("user_id", userID.String()).
		Int("questions", len(out)).
		Msg("Test issued")
	return out, nil
}

// Submit grades an answer sheet, stores the result and returns its id.
func (s *QuizService) Submit(ctx context.Context, userID uuid.UUID, username string, req model.SubmitRequest) (uuid.UUID, error) {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	// Only the server-drawn set is graded. Answers for other ids are ignored.
	ids, err := s.issued.TakeIssued(ctx, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("read issued questions: %w", err)
	}
	if len(ids) == 0 {
		return uuid.Nil, ErrNoActiveTest
	}

	questions, err := s.questions.ListByIDs(ctx, ids)
	if err != nil {
		s.restoreIssued(ctx, userID, ids, cfg)
		return uuid.Nil, fmt.Errorf("load graded questions: %w", err)
	}
	questions = orderByIDs(questions, ids)

	grade := s.engine.Grade(questions, req.UserAnswers)

	res := &model.Result{
		UserID:             userID,
		QuestionIDs:        questionIDs(questions),
		TotalScore:         grade.TotalScore,
		MaxScore:           s.engine.MaxScore(questions),
		QuestionsAttempted: grade.AttemptedCount,
		CorrectAnswers:     grade.CorrectCount,
		TotalQuestions:     len(questions),
		TimeTakenSeconds:   clamp(req.TimeTakenSeconds, 0, cfg.TotalSeconds()+int(s.grace/time.Second)),
	}
	if err := s.results.Create(ctx, res); err != nil {
		s.restoreIssued(ctx, userID, ids, cfg)
		return uuid.Nil, fmt.Errorf("store result: %w", err)
	}
	entry := model.LeaderboardEntry{
		UserID:   userID,
		Username: username,
		MaxScore: res.TotalScore,
		ResultID: res.ID,
		TestDate: res.CreatedAt,
	}
	if err := s.board.Enqueue(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("result_id", res.ID.String()).Msg("Failed to queue leaderboard update")
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("result_id", res.ID.String()).
		Int("score", res.TotalScore).
		Int("correct", res.CorrectAnswers).
		Int("attempted", res.QuestionsAttempted).
		Msg("Test graded")
	return res.ID, nil
}

// restoreIssued puts a taken set back after a failed submission so the same
// answer sheet can be retried.
func (s *QuizService) restoreIssued(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, cfg model.TestConfig) {
	if err := s.issued.SaveIssued(ctx, userID, ids, cfg.Duration()+s.grace); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to restore issued questions")
	}
}

// orderByIDs returns questions in the order of ids, dropping ids that did not resolve.
func orderByIDs(questions []model.Question, ids []uuid.UUID) []model.Question {
	byID := make(map[uuid.UUID]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	out := make([]model.Question, 0, len(questions))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

func questionIDs(questions []model.Question) []uuid.UUID {
	ids := make([]uuid.UUID, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
	}
	return ids
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
