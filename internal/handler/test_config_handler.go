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

// TestConfigHandler exposes the active test configuration.
type TestConfigHandler struct {
	configService *service.TestConfigService
	log           zerolog.Logger
}

// NewTestConfigHandler creates a new TestConfigHandler.
func NewTestConfigHandler(configService *service.TestConfigService, log zerolog.Logger) *TestConfigHandler {
	return &TestConfigHandler{
		configService: configService,
		log:           log.With().Str("component", "test_config_handler").Logger(),
	}
}

// GetConfig godoc
// GET /api/v1/quiz/config and GET /api/v1/admin/test-config
// Returns the duration, question count and difficulty distribution.
func (h *TestConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Load test config failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

// UpdateConfig godoc
// PUT /api/v1/admin/test-config
func (h *TestConfigHandler) UpdateConfig(c *gin.Context) {
	var req model.UpdateTestConfigRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cfg, err := h.configService.Update(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrTestConfigInvalid) {
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidTestConfig, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Update test config failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, cfg)
}
