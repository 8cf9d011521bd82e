package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/payment"
)

type paymentFixture struct {
	svc     *PaymentService
	results *fakeResults
	orders  *fakeOrders
	gateway *fakeGateway
	owner   model.User
	result  *model.Result
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		results: newFakeResults(),
		gateway: &fakeGateway{statuses: map[string]payment.Status{}},
		owner:   newUser("ada"),
	}
	f.orders = newFakeOrders(f.results)
	f.result = f.results.add(model.Result{TotalScore: 30, MaxScore: 45}, f.owner)
	f.svc = NewPaymentService(f.results, f.orders, f.gateway,
		PaymentConfig{Price: 49000, Currency: "IDR", ClientKey: "client-key"}, zerolog.Nop())
	return f
}

func (f *paymentFixture) createOrder(t *testing.T) *model.CreateOrderResponse {
	t.Helper()
	resp, err := f.svc.CreateOrder(context.Background(), f.owner.ID, f.result.ID)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return resp
}

func TestCreateOrder(t *testing.T) {
	f := newPaymentFixture()
	resp := f.createOrder(t)

	if resp.Amount != 49000 || resp.Currency != "IDR" || resp.Token != "snap-token" || resp.ClientKey != "client-key" {
		t.Errorf("response = %+v", resp)
	}
	if resp.UserEmail != "ada@example.com" {
		t.Errorf("UserEmail = %q", resp.UserEmail)
	}
	order := f.orders.only()
	if order == nil || order.OrderID != resp.OrderID || order.Status != model.PaymentPending || order.ResultID != f.result.ID {
		t.Errorf("stored order = %+v", order)
	}
	if len(f.gateway.created) != 1 || f.gateway.created[0].Amount != 49000 {
		t.Errorf("gateway orders = %+v", f.gateway.created)
	}
}

func TestCreateOrderRejections(t *testing.T) {
	f := newPaymentFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateOrder(ctx, f.owner.ID, uuid.New()); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("unknown result err = %v, want ErrResultNotFound", err)
	}
	if _, err := f.svc.CreateOrder(ctx, uuid.New(), f.result.ID); !errors.Is(err, ErrNotResultOwner) {
		t.Errorf("foreign result err = %v, want ErrNotResultOwner", err)
	}

	f.results.results[f.result.ID].CertificatePurchased = true
	if _, err := f.svc.CreateOrder(ctx, f.owner.ID, f.result.ID); !errors.Is(err, ErrAlreadyPurchased) {
		t.Errorf("purchased result err = %v, want ErrAlreadyPurchased", err)
	}
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	f := newPaymentFixture()
	f.gateway.createErr = errors.New("503")

	if _, err := f.svc.CreateOrder(context.Background(), f.owner.ID, f.result.ID); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
	if got := f.orders.only().Status; got != model.PaymentFailed {
		t.Errorf("order status = %q, want failed", got)
	}
}

func TestVerifyFlipsPurchaseOnce(t *testing.T) {
	f := newPaymentFixture()
	resp := f.createOrder(t)
	f.gateway.statuses[resp.OrderID] = signedStatus(resp.OrderID, "settlement", "49000.00")

	res, err := f.svc.Verify(context.Background(), f.owner.ID, resp.OrderID)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.CertificatePurchased {
		t.Error("result not marked purchased")
	}

	// the webhook arriving afterwards changes nothing
	st := f.gateway.statuses[resp.OrderID]
	err = f.svc.HandleNotification(context.Background(), model.PaymentNotification{
		OrderID: st.OrderID, StatusCode: st.StatusCode, GrossAmount: st.GrossAmount,
		SignatureKey: st.SignatureKey, TransactionStatus: st.TransactionStatus,
	})
	if err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if f.orders.settled != 1 {
		t.Errorf("settled = %d, want 1", f.orders.settled)
	}

	if _, err := f.svc.Verify(context.Background(), f.owner.ID, resp.OrderID); err != nil {
		t.Errorf("second Verify: %v", err)
	}
}

func TestVerifyOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  func(orderID string) payment.Status
		wantErr error
	}{
		{"pending", func(id string) payment.Status { return signedStatus(id, "pending", "49000.00") }, ErrPaymentPending},
		{"expired", func(id string) payment.Status { return signedStatus(id, "expire", "49000.00") }, ErrPaymentFailed},
		{"wrong amount", func(id string) payment.Status { return signedStatus(id, "settlement", "1000.00") }, ErrAmountMismatch},
		{"bad signature", func(id string) payment.Status {
			st := signedStatus(id, "settlement", "49000.00")
			st.SignatureKey = "deadbeef"
			return st
		}, ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPaymentFixture()
			resp := f.createOrder(t)
			f.gateway.statuses[resp.OrderID] = tt.status(resp.OrderID)

			_, err := f.svc.Verify(context.Background(), f.owner.ID, resp.OrderID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if f.results.purchased(f.result.ID) {
				t.Error("result marked purchased")
			}
		})
	}
}

func TestVerifyRejectsOtherUsersOrder(t *testing.T) {
	f := newPaymentFixture()
	resp := f.createOrder(t)

	if _, err := f.svc.Verify(context.Background(), uuid.New(), resp.OrderID); !errors.Is(err, ErrNotResultOwner) {
		t.Errorf("err = %v, want ErrNotResultOwner", err)
	}
	if _, err := f.svc.Verify(context.Background(), f.owner.ID, "CERT-UNKNOWN"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
}
