package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/certificate"
	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
)

// ErrPaymentRequired is returned for certificates that have not been bought.
var ErrPaymentRequired = errors.New("certificate not purchased")

// Certificate is a rendered PDF and its download name.
type Certificate struct {
	Filename string
	PDF      []byte
}

// CertificateService renders certificates for purchased results.
type CertificateService struct {
	results  ResultStore
	renderer CertificateRenderer
	log      zerolog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(results ResultStore, renderer CertificateRenderer, log zerolog.Logger) *CertificateService {
	return &CertificateService{
		results:  results,
		renderer: renderer,
		log:      log.With().Str("component", "certificate_service").Logger(),
	}
}

// ForOwner renders the certificate of resultID for its owner. Missing,
// foreign and unpaid results fail with distinct errors, in that order.
func (s *CertificateService) ForOwner(ctx context.Context, resultID, userID uuid.UUID) (*Certificate, error) {
	res, err := s.load(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrNotResultOwner
	}
	return s.render(res)
}

// ForVerification renders a purchased certificate for anyone holding its id.
func (s *CertificateService) ForVerification(ctx context.Context, resultID uuid.UUID) (*Certificate, error) {
	res, err := s.load(ctx, resultID)
	if err != nil {
		return nil, err
	}
	return s.render(res)
}

func (s *CertificateService) load(ctx context.Context, resultID uuid.UUID) (*model.ResultWithUser, error) {
	res, err := s.results.GetWithUser(ctx, resultID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

func (s *CertificateService) render(res *model.ResultWithUser) (*Certificate, error) {
	if !res.CertificatePurchased {
		return nil, ErrPaymentRequired
	}
	pdf, err := s.renderer.Render(certificate.Data{
		ResultID:       res.ID,
		Name:           res.UserName,
		Username:       res.Username,
		Score:          res.TotalScore,
		MaxScore:       res.MaxScore,
		CorrectAnswers: res.CorrectAnswers,
		TotalQuestions: res.TotalQuestions,
		TimeTaken:      time.Duration(res.TimeTakenSeconds) * time.Second,
		TestDate:       res.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("result_id", res.ID.String()).Int("bytes", len(pdf)).Msg("Certificate rendered")
	return &Certificate{Filename: certificate.Filename(res.Username), PDF: pdf}, nil
}
