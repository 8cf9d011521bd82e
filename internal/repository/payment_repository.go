package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

// PaymentRepository handles certificate order data access.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a pending order.
func (r *PaymentRepository) Create(ctx context.Context, o *model.PaymentOrder) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payment_orders (order_id, result_id, user_id, amount, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		o.OrderID, o.ResultID, o.UserID, o.Amount, o.Currency, o.Status,
	).Scan(&o.ID, &o.CreatedAt)
	if uniqueConstraint(err) != "" {
		return ErrDuplicateOrder
	}
	return err
}

// GetByOrderID retrieves an order by the id shared with the gateway.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	o := &model.PaymentOrder{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, order_id, result_id, user_id, amount, currency, status, created_at, paid_at
		 FROM payment_orders WHERE order_id = $1`, orderID,
	).Scan(&o.ID, &o.OrderID, &o.ResultID, &o.UserID, &o.Amount, &o.Currency, &o.Status, &o.CreatedAt, &o.PaidAt)
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// Settle marks the order paid and flips the certificate flag of its result in
// one transaction. It reports whether the result flag changed on this call,
// so a repeated notification for the same order is a no-op.
func (r *PaymentRepository) Settle(ctx context.Context, orderID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`UPDATE payment_orders SET status = $1, paid_at = CURRENT_TIMESTAMP
		 WHERE order_id = $2 AND status <> $1`,
		model.PaymentPaid, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE results SET certificate_purchased = TRUE
		 WHERE id = (SELECT result_id FROM payment_orders WHERE order_id = $1)
		   AND certificate_purchased = FALSE`,
		orderID,
	)
	if err != nil {
		return false, fmt.Errorf("mark certificate purchased: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed records a terminal gateway failure for a still pending order.
func (r *PaymentRepository) MarkFailed(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE payment_orders SET status = $1 WHERE order_id = $2 AND status = $3`,
		model.PaymentFailed, orderID, model.PaymentPending,
	)
	return err
}
