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

var ErrQuestionNotFound = errors.New("question not found")

// QuestionService handles question bank management.
type QuestionService struct {
	questions QuestionStore
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx context.Context, req model.QuestionRequest) (*model.Question, error) {
	q := req.ToQuestion()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.log.Info().Str("question_id", q.ID.String()).Str("difficulty", string(q.Difficulty)).Msg("Question created")
	return q, nil
}

// Update replaces the content of question id.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req model.QuestionRequest) (*model.Question, error) {
	q := req.ToQuestion()
	q.ID = id
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := s.questions.Update(ctx, q); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Delete removes question id. Stored results keep their scores.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	s.log.Info().Str("question_id", id.String()).Msg("Question deleted")
	return nil
}

// Get returns a question including its correct answer.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

// List returns a filtered page of questions and the total match count.
func (s *QuestionService) List(ctx context.Context, q model.QuestionListQuery) ([]model.Question, int, error) {
	page, perPage := NormalizePage(q.Page, q.PerPage)
	return s.questions.List(ctx, q.Category, q.Difficulty, perPage, (page-1)*perPage)
}

// Categories returns the category summary of the bank.
func (s *QuestionService) Categories(ctx context.Context) ([]model.CategoryCount, error) {
	return s.questions.Categories(ctx)
}
