package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// ErrNotConfigured is returned when no server key is set.
var ErrNotConfigured = errors.New("payment gateway is not configured")

// Midtrans talks to Snap for checkout and to the Core API for status checks.
type Midtrans struct {
	serverKey string
	snap      snap.Client
	core      coreapi.Client
}

// NewMidtrans creates a gateway client. env is "production" or anything else for sandbox.
func NewMidtrans(serverKey, env string) *Midtrans {
	e := midtrans.Sandbox
	if env == "production" {
		e = midtrans.Production
	}
	m := &Midtrans{serverKey: serverKey}
	m.snap.New(serverKey, e)
	m.core.New(serverKey, e)
	return m
}

// CreateTransaction opens a Snap checkout for o.
func (m *Midtrans) CreateTransaction(_ context.Context, o Order) (*Transaction, error) {
	if m.serverKey == "" {
		return nil, ErrNotConfigured
	}
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  o.OrderID,
			GrossAmt: o.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: o.CustomerName,
			Email: o.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    o.ItemID,
			Name:  o.ItemName,
			Price: o.Amount,
			Qty:   1,
		}},
	}

	resp, gwErr := m.snap.CreateTransaction(req)
	if gwErr != nil {
		return nil, fmt.Errorf("create snap transaction: %w", gwErr)
	}
	return &Transaction{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// TransactionStatus queries the current status of orderID.
func (m *Midtrans) TransactionStatus(_ context.Context, orderID string) (*Status, error) {
	if m.serverKey == "" {
		return nil, ErrNotConfigured
	}
	resp, gwErr := m.core.CheckTransaction(orderID)
	if gwErr != nil {
		return nil, fmt.Errorf("check transaction %s: %w", orderID, gwErr)
	}
	return &Status{
		OrderID:           resp.OrderID,
		StatusCode:        resp.StatusCode,
		GrossAmount:       resp.GrossAmount,
		SignatureKey:      resp.SignatureKey,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
	}, nil
}

// VerifySignature checks s against the configured server key.
func (m *Midtrans) VerifySignature(s Status) bool {
	return m.serverKey != "" && VerifySignature(s, m.serverKey)
}
