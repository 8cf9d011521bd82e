package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/response"
	"github.com/iqscaler/iqscaler-backend/internal/service"
)

// CertificateSource renders certificate PDFs. Implemented by *service.CertificateService.
type CertificateSource interface {
	ForOwner(ctx context.Context, resultID, userID uuid.UUID) (*service.Certificate, error)
	ForVerification(ctx context.Context, resultID uuid.UUID) (*service.Certificate, error)
}

// CertificateHandler streams certificate PDFs.
type CertificateHandler struct {
	certificates CertificateSource
	log          zerolog.Logger
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(certificates CertificateSource, log zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		certificates: certificates,
		log:          log.With().Str("component", "certificate_handler").Logger(),
	}
}

// Download godoc
// GET /api/v1/certificates/:id[?preview=true]
// Owner only. preview=true renders inline instead of as a download.
func (h *CertificateHandler) Download(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	cert, err := h.certificates.ForOwner(c.Request.Context(), id, claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	disposition := "attachment"
	if c.Query("preview") == "true" {
		disposition = "inline"
	}
	h.write(c, cert, disposition)
}

// Verify godoc
// GET /api/v1/public/certificates/verify/:id
// Lets anyone holding the id view a purchased certificate.
func (h *CertificateHandler) Verify(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	cert, err := h.certificates.ForVerification(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.write(c, cert, "inline")
}

func (h *CertificateHandler) write(c *gin.Context, cert *service.Certificate, disposition string) {
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, cert.Filename))
	c.Data(http.StatusOK, "application/pdf", cert.PDF)
}

func (h *CertificateHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrResultNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
	case errors.Is(err, service.ErrNotResultOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotResultOwner)
	case errors.Is(err, service.ErrPaymentRequired):
		response.Fail(c, http.StatusPaymentRequired, response.ErrPaymentRequired)
	default:
		h.log.Error().Err(err).Msg("Certificate rendering failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
