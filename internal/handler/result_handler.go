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

// ResultHandler serves stored results and the leaderboard.
type ResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		log:           log.With().Str("component", "result_handler").Logger(),
	}
}

// GetResult godoc
// GET /api/v1/results/:id
// Owner or admin only.
func (h *ResultHandler) GetResult(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res, err := h.resultService.Get(c.Request.Context(), id, claims)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResultNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
		case errors.Is(err, service.ErrNotResultOwner):
			response.Fail(c, http.StatusForbidden, response.ErrNotResultOwner)
		default:
			h.log.Error().Err(err).Msg("Get result failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}

// ListMine godoc
// GET /api/v1/results/mine?page=&perPage=
// Returns the caller's test history, newest first.
func (h *ResultHandler) ListMine(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var q model.ResultListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	results, total, err := h.resultService.ListMine(c.Request.Context(), claims.UserID, q)
	if err != nil {
		h.log.Error().Err(err).Msg("List results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.Result{}
	}

	page, perPage := service.NormalizePage(q.Page, q.PerPage)
	response.SuccessWithPagination(c, http.StatusOK, results, response.NewPagination(page, perPage, total))
}

// Leaderboard godoc
// GET /api/v1/public/leaderboard
// Best score per user, highest first. Ties go to the earlier test.
func (h *ResultHandler) Leaderboard(c *gin.Context) {
	entries, err := h.resultService.Leaderboard(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Leaderboard failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	response.Success(c, http.StatusOK, entries)
}
