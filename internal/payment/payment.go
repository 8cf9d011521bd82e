// Package payment wraps the Midtrans gateway used to sell certificates.
package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
)

// Order is what the gateway needs to open a transaction.
type Order struct {
	OrderID       string
	Amount        int64
	ItemID        string
	ItemName      string
	CustomerName  string
	CustomerEmail string
}

// Transaction is the gateway's answer to a new order.
type Transaction struct {
	Token       string
	RedirectURL string
}

// Status is a transaction status as reported by the gateway, either from a
// status query or a notification.
type Status struct {
	OrderID           string
	StatusCode        string
	GrossAmount       string
	SignatureKey      string
	TransactionStatus string
	FraudStatus       string
}

// Outcome is what a Status means for the order.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomePaid
	OutcomeFailed
)

// Outcome classifies the gateway status.
func (s Status) Outcome() Outcome {
	switch strings.ToLower(s.TransactionStatus) {
	case "settlement":
		return OutcomePaid
	case "capture":
		// card captures can still be challenged by fraud detection
		if fs := strings.ToLower(s.FraudStatus); fs == "" || fs == "accept" {
			return OutcomePaid
		}
		return OutcomePending
	case "deny", "cancel", "expire", "failure", "refund", "partial_refund":
		return OutcomeFailed
	}
	return OutcomePending
}

// Amount parses the gross amount ("49000.00") into whole currency units.
func (s Status) Amount() (int64, bool) {
	f, err := strconv.ParseFloat(s.GrossAmount, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// Signature computes the gateway signature:
// hex(SHA512(order_id + status_code + gross_amount + server_key)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature reports whether s carries a valid signature for serverKey.
func VerifySignature(s Status, serverKey string) bool {
	want := Signature(s.OrderID, s.StatusCode, s.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(s.SignatureKey))) == 1
}
