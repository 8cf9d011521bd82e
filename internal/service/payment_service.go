package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/payment"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
)

// Payment errors.
var (
	ErrAlreadyPurchased   = errors.New("certificate already purchased")
	ErrOrderNotFound      = errors.New("payment order not found")
	ErrPaymentPending     = errors.New("payment not completed yet")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrAmountMismatch     = errors.New("paid amount does not match order")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// PaymentConfig holds the certificate price and the public gateway key.
type PaymentConfig struct {
	Price     int64
	Currency  string
	ClientKey string
	ItemName  string
}

// PaymentService sells certificates through the payment gateway.
type PaymentService struct {
	results ResultStore
	orders  PaymentStore
	gateway PaymentGateway
	cfg     PaymentConfig
	log     zerolog.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(results ResultStore, orders PaymentStore, gateway PaymentGateway, cfg PaymentConfig, log zerolog.Logger) *PaymentService {
	if cfg.ItemName == "" {
		cfg.ItemName = "IQ Test Certificate"
	}
	return &PaymentService{
		results: results,
		orders:  orders,
		gateway: gateway,
		cfg:     cfg,
		log:     log.With().Str("component", "payment_service").Logger(),
	}
}

// CreateOrder opens a gateway transaction for the certificate of resultID.
func (s *PaymentService) CreateOrder(ctx context.Context, userID, resultID uuid.UUID) (*model.CreateOrderResponse, error) {
	res, err := s.results.GetWithUser(ctx, resultID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	if res.UserID != userID {
		return nil, ErrNotResultOwner
	}
	if res.CertificatePurchased {
		return nil, ErrAlreadyPurchased
	}

	order := &model.PaymentOrder{
		OrderID:  newOrderID(),
		ResultID: res.ID,
		UserID:   userID,
		Amount:   s.cfg.Price,
		Currency: s.cfg.Currency,
		Status:   model.PaymentPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	tx, err := s.gateway.CreateTransaction(ctx, payment.Order{
		OrderID:       order.OrderID,
		Amount:        order.Amount,
		ItemID:        res.ID.String(),
		ItemName:      s.cfg.ItemName,
		CustomerName:  res.UserName,
		CustomerEmail: res.Email,
	})
	if err != nil {
		if markErr := s.orders.MarkFailed(ctx, order.OrderID); markErr != nil {
			s.log.Error().Err(markErr).Str("order_id", order.OrderID).Msg("Failed to mark order failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	s.log.Info().
		Str("order_id", order.OrderID).
		Str("result_id", res.ID.String()).
		Int64("amount", order.Amount).
		Msg("Payment order created")

	return &model.CreateOrderResponse{
		OrderID:     order.OrderID,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Token:       tx.Token,
		RedirectURL: tx.RedirectURL,
		ClientKey:   s.cfg.ClientKey,
		UserName:    res.UserName,
		UserEmail:   res.Email,
	}, nil
}

// Verify asks the gateway for the status of orderID and, once settled, marks
// the certificate purchased. It returns the updated result.
func (s *PaymentService) Verify(ctx context.Context, userID uuid.UUID, orderID string) (*model.Result, error) {
	order, err := s.order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotResultOwner
	}

	if order.Status != model.PaymentPaid {
		st, err := s.gateway.TransactionStatus(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		outcome, err := s.apply(ctx, order, *st)
		if err != nil {
			return nil, err
		}
		switch outcome {
		case payment.OutcomePending:
			return nil, ErrPaymentPending
		case payment.OutcomeFailed:
			return nil, ErrPaymentFailed
		}
	}

	res, err := s.results.GetByID(ctx, order.ResultID)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// HandleNotification applies a gateway webhook.
func (s *PaymentService) HandleNotification(ctx context.Context, n model.PaymentNotification) error {
	order, err := s.order(ctx, n.OrderID)
	if err != nil {
		return err
	}
	_, err = s.apply(ctx, order, payment.Status{
		OrderID:           n.OrderID,
		StatusCode:        n.StatusCode,
		GrossAmount:       n.GrossAmount,
		SignatureKey:      n.SignatureKey,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
	})
	return err
}

func (s *PaymentService) order(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// apply verifies st and records its outcome on order.
func (s *PaymentService) apply(ctx context.Context, order *model.PaymentOrder, st payment.Status) (payment.Outcome, error) {
	if st.OrderID != order.OrderID || !s.gateway.VerifySignature(st) {
		s.log.Warn().Str("order_id", order.OrderID).Msg("Rejected payment status with bad signature")
		return payment.OutcomePending, ErrInvalidSignature
	}

	outcome := st.Outcome()
	switch outcome {
	case payment.OutcomePaid:
		amount, ok := st.Amount()
		if !ok || amount != order.Amount {
			s.log.Warn().
				Str("order_id", order.OrderID).
				Str("gross_amount", st.GrossAmount).
				Int64("expected", order.Amount).
				Msg("Paid amount mismatch")
			return outcome, ErrAmountMismatch
		}
		changed, err := s.orders.Settle(ctx, order.OrderID)
		if err != nil {
			return outcome, fmt.Errorf("settle order: %w", err)
		}
		if changed {
			s.log.Info().
				Str("order_id", order.OrderID).
				Str("result_id", order.ResultID.String()).
				Msg("Certificate purchased")
		}
	case payment.OutcomeFailed:
		if err := s.orders.MarkFailed(ctx, order.OrderID); err != nil {
			return outcome, fmt.Errorf("mark order failed: %w", err)
		}
		s.log.Info().Str("order_id", order.OrderID).Str("status", st.TransactionStatus).Msg("Payment failed")
	}
	return outcome, nil
}

func newOrderID() string {
	return "CERT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
