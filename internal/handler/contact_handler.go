package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/response"
	"github.com/iqscaler/iqscaler-backend/internal/service"
	"github.com/iqscaler/iqscaler-backend/internal/validator"
)

// ContactHandler accepts contact form messages.
type ContactHandler struct {
	contactService *service.ContactService
	log            zerolog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactService *service.ContactService, log zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		log:            log.With().Str("component", "contact_handler").Logger(),
	}
}

// Send godoc
// POST /api/v1/public/contact
func (h *ContactHandler) Send(c *gin.Context) {
	var req model.ContactRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.contactService.Send(c.Request.Context(), req); err != nil {
		h.log.Error().Err(err).Msg("Contact message failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Thanks, your message has been sent."})
}
