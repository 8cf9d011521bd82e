// Package mail sends the few e-mails the service needs: password reset links
// and contact form messages.
package mail

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrNoRecipient is returned for a message without a To address.
var ErrNoRecipient = errors.New("mail: no recipient")

// Message is a plain-text e-mail.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

// LogMailer writes messages to the log instead of delivering them. It is the
// transport used until an SMTP relay is configured.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a new LogMailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mailer").Logger()}
}

// Send logs msg.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.log.Info().
		Str("to", msg.To).
		Str("reply_to", msg.ReplyTo).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("Mail queued for log delivery")
	return nil
}
