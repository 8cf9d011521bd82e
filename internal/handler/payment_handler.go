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

// PaymentHandler sells certificates.
type PaymentHandler struct {
	paymentService *service.PaymentService
	log            zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log.With().Str("component", "payment_handler").Logger(),
	}
}

// CreateOrder godoc
// POST /api/v1/payments/create-order
// Opens a gateway transaction for the certificate of {resultId}.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.CreateOrderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.paymentService.CreateOrder(c.Request.Context(), claims.UserID, req.ResultID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// Verify godoc
// POST /api/v1/payments/verify
// Confirms {orderId} with the gateway and returns the updated result.
func (h *PaymentHandler) Verify(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req model.VerifyPaymentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.paymentService.Verify(c.Request.Context(), claims.UserID, req.OrderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Notification godoc
// POST /api/v1/public/payments/notification
// Gateway webhook. Answers 200 for unknown orders so the gateway stops retrying.
func (h *PaymentHandler) Notification(c *gin.Context) {
	var n model.PaymentNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	err := h.paymentService.HandleNotification(c.Request.Context(), n)
	switch {
	case err == nil, errors.Is(err, service.ErrOrderNotFound):
		response.Success(c, http.StatusOK, gin.H{"received": true})
	case errors.Is(err, service.ErrInvalidSignature):
		response.Fail(c, http.StatusForbidden, response.ErrInvalidSignature)
	default:
		h.fail(c, err)
	}
}

func (h *PaymentHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrResultNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
	case errors.Is(err, service.ErrOrderNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrOrderNotFound)
	case errors.Is(err, service.ErrNotResultOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotResultOwner)
	case errors.Is(err, service.ErrAlreadyPurchased):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyPurchased)
	case errors.Is(err, service.ErrPaymentPending):
		response.Fail(c, http.StatusConflict, response.ErrPaymentPending)
	case errors.Is(err, service.ErrPaymentFailed):
		response.Fail(c, http.StatusPaymentRequired, response.ErrPaymentFailed)
	case errors.Is(err, service.ErrInvalidSignature):
		response.Fail(c, http.StatusBadGateway, response.ErrInvalidSignature)
	case errors.Is(err, service.ErrAmountMismatch):
		response.Fail(c, http.StatusConflict, response.ErrAmountMismatch)
	case errors.Is(err, service.ErrGatewayUnavailable):
		h.log.Error().Err(err).Msg("Payment gateway call failed")
		response.Fail(c, http.StatusBadGateway, response.ErrGatewayUnavailable)
	default:
		h.log.Error().Err(err).Msg("Payment operation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
