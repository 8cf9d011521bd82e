package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/mail"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
)

// PasswordResetTTL is how long a reset link stays valid.
const PasswordResetTTL = time.Hour

var ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

// PasswordService runs the forgot/reset password flow.
type PasswordService struct {
	users    UserStore
	tokens   ResetTokenStore
	mailer   Mailer
	auth     *AuthService
	resetURL string
	newToken func() string
	log      zerolog.Logger
}

// NewPasswordService creates a new PasswordService. Reset links point at
// publicBaseURL/resetpassword/<token>.
func NewPasswordService(users UserStore, tokens ResetTokenStore, mailer Mailer, auth *AuthService, publicBaseURL string, log zerolog.Logger) *PasswordService {
	return &PasswordService{
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		auth:     auth,
		resetURL: strings.TrimRight(publicBaseURL, "/") + "/resetpassword/",
		newToken: func() string {
			// v4 UUIDs carry 122 bits from crypto/rand
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
		log: log.With().Str("component", "password_service").Logger(),
	}
}

// RequestReset mails a reset link when email belongs to an account. Unknown
// addresses succeed silently so the endpoint does not reveal who is registered.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debug().Msg("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token := s.newToken()
	if err := s.tokens.SaveResetToken(ctx, hashResetToken(token), user.ID, PasswordResetTTL); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Reset your IQ Scaler password",
		Body: fmt.Sprintf("Hi %s,\n\nOpen the link below within %d minutes to choose a new password:\n\n%s%s\n\nIf you did not ask for this, ignore this e-mail.\n",
			user.Name, int(PasswordResetTTL/time.Minute), s.resetURL, token),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	s.log.Info().Str("user_id", user.ID.String()).Msg("Password reset link sent")
	return nil
}

// Reset sets a new password for the account behind token. A token works once.
func (s *PasswordService) Reset(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}
	userID, err := s.tokens.TakeResetToken(ctx, hashResetToken(token))
	if err != nil {
		return fmt.Errorf("take reset token: %w", err)
	}
	if userID == uuid.Nil {
		return ErrResetTokenInvalid
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info().Str("user_id", userID.String()).Msg("Password reset")
	return nil
}

// hashResetToken keeps raw tokens out of Redis.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
