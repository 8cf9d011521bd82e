package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iqscaler/iqscaler-backend/internal/certificate"
	"github.com/iqscaler/iqscaler-backend/internal/mail"
	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/payment"
)

// The interfaces below are the slices of the repository and cache layers each
// service needs. The concrete implementations live in internal/repository and
// internal/cache.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, search string, limit, offset int) ([]model.User, int, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
}

type QuestionStore interface {
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	List(ctx context.Context, category string, difficulty model.Difficulty, limit, offset int) ([]model.Question, int, error)
	ListAll(ctx context.Context) ([]model.Question, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
	Categories(ctx context.Context) ([]model.CategoryCount, error)
}

type TestConfigStore interface {
	Get(ctx context.Context) (*model.TestConfig, error)
	Upsert(ctx context.Context, cfg *model.TestConfig) error
}

type TestConfigCache interface {
	TestConfig(ctx context.Context) (*model.TestConfig, error)
	SetTestConfig(ctx context.Context, cfg model.TestConfig) error
	InvalidateTestConfig(ctx context.Context) error
}

type IssuedSetStore interface {
	SaveIssued(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, ttl time.Duration) error
	TakeIssued(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type ResultStore interface {
	Create(ctx context.Context, res *model.Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error)
	GetWithUser(ctx context.Context, id uuid.UUID) (*model.ResultWithUser, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Result, int, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// LeaderboardQueue accepts fresh results for the leaderboard worker.
type LeaderboardQueue interface {
	Enqueue(ctx context.Context, e model.LeaderboardEntry) error
}

type LeaderboardBoard interface {
	Top(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
	Reset(ctx context.Context, entries []model.LeaderboardEntry) error
}

type PaymentStore interface {
	Create(ctx context.Context, o *model.PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error)
	Settle(ctx context.Context, orderID string) (bool, error)
	MarkFailed(ctx context.Context, orderID string) error
}

type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type ResetTokenStore interface {
	SaveResetToken(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error
	TakeResetToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
}

// Mailer is implemented by *mail.LogMailer.
type Mailer interface {
	Send(ctx context.Context, m mail.Message) error
}

// PaymentGateway is implemented by *payment.Midtrans.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, o payment.Order) (*payment.Transaction, error)
	TransactionStatus(ctx context.Context, orderID string) (*payment.Status, error)
	VerifySignature(s payment.Status) bool
}

// CertificateRenderer is implemented by *certificate.Renderer.
type CertificateRenderer interface {
	Render(d certificate.Data) ([]byte, error)
}
