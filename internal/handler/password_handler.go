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

// PasswordHandler serves the forgot/reset password endpoints.
type PasswordHandler struct {
	passwordService *service.PasswordService
	log             zerolog.Logger
}

// NewPasswordHandler creates a new PasswordHandler.
func NewPasswordHandler(passwordService *service.PasswordService, log zerolog.Logger) *PasswordHandler {
	return &PasswordHandler{
		passwordService: passwordService,
		log:             log.With().Str("component", "password_handler").Logger(),
	}
}

// ForgotPassword godoc
// POST /api/v1/auth/forgot-password
// Always answers 200 so registered addresses cannot be enumerated.
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.passwordService.RequestReset(c.Request.Context(), req.Email); err != nil {
		h.log.Error().Err(err).Msg("Password reset request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "If that email is registered, a reset link has been sent.",
	})
}

// ResetPassword godoc
// PUT /api/v1/auth/reset-password/:token
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.passwordService.Reset(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		if errors.Is(err, service.ErrResetTokenInvalid) {
			response.Fail(c, http.StatusBadRequest, response.ErrResetTokenInvalid)
			return
		}
		h.log.Error().Err(err).Msg("Password reset failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password updated. You can log in now."})
}
