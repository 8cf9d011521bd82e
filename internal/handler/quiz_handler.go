package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/response"
	"github.com/iqscaler/iqscaler-backend/internal/service"
	"github.com/iqscaler/iqscaler-backend/internal/validator"
)

// QuizHandler delivers tests and accepts answer sheets.
type QuizHandler struct {
	quizService *service.QuizService
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// GetQuestions godoc
// GET /api/v1/quiz/questions
// Draws a new question set. Correct answers are never included.
func (h *QuizHandler) GetQuestions(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	questions, err := h.quizService.Questions(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoQuestionsAvailable) {
			response.Fail(c, http.StatusNotFound, response.ErrNoQuestions)
			return
		}
		h.log.Error().Err(err).Msg("Issue questions failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, questions)
}

// Submit godoc
// POST /api/v1/quiz/submit
// Grades {userAnswers, timeTakenSeconds} and returns {resultId}. The score is
// only visible through the result endpoint.
func (h *QuizHandler) Submit(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	id, err := h.quizService.Submit(c.Request.Context(), claims.UserID, claims.Username, req)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveTest) {
			response.Fail(c, http.StatusConflict, response.ErrNoActiveTest)
			return
		}
		h.log.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("Submit failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, model.SubmitResponse{ResultID: id})
}
