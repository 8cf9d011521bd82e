package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/mail"
	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// ContactService forwards contact form messages to the support inbox.
type ContactService struct {
	mailer Mailer
	to     string
	log    zerolog.Logger
}

// NewContactService creates a new ContactService delivering to the address to.
func NewContactService(mailer Mailer, to string, log zerolog.Logger) *ContactService {
	return &ContactService{
		mailer: mailer,
		to:     to,
		log:    log.With().Str("component", "contact_service").Logger(),
	}
}

// Send forwards req. Replies go straight to the sender.
func (s *ContactService) Send(ctx context.Context, req model.ContactRequest) error {
	name := strings.TrimSpace(req.Name)
	msg := mail.Message{
		To:      s.to,
		ReplyTo: strings.TrimSpace(req.Email),
		Subject: "Contact form: " + name,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s\n", name, strings.TrimSpace(req.Email), strings.TrimSpace(req.Message)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}
	s.log.Info().Str("reply_to", msg.ReplyTo).Msg("Contact message forwarded")
	return nil
}
