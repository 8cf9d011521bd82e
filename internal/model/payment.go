package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle state of a certificate order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentOrder is a certificate purchase attempt for one result.
type PaymentOrder struct {
	ID        uuid.UUID     `json:"id"`
	OrderID   string        `json:"orderId"`
	ResultID  uuid.UUID     `json:"resultId"`
	UserID    uuid.UUID     `json:"userId"`
	Amount    int64         `json:"amount"`
	Currency  string        `json:"currency"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	PaidAt    *time.Time    `json:"paidAt,omitempty"`
}

// CreateOrderRequest is the body of POST /payments/create-order.
type CreateOrderRequest struct {
	ResultID uuid.UUID `json:"resultId" binding:"required"`
}

// CreateOrderResponse carries what the frontend needs to open the payment popup.
type CreateOrderResponse struct {
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
	ClientKey   string `json:"clientKey"`
	UserName    string `json:"userName"`
	UserEmail   string `json:"userEmail"`
}

// VerifyPaymentRequest is the body of POST /payments/verify.
type VerifyPaymentRequest struct {
	OrderID string `json:"orderId" binding:"required,max=64"`
}

// PaymentNotification is the webhook body posted by the payment gateway.
// Field names follow the gateway's wire format.
type PaymentNotification struct {
	OrderID           string `json:"order_id" binding:"required"`
	StatusCode        string `json:"status_code" binding:"required"`
	GrossAmount       string `json:"gross_amount" binding:"required"`
	SignatureKey      string `json:"signature_key" binding:"required"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	FraudStatus       string `json:"fraud_status"`
}
