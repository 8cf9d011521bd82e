package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/model"
)

func TestCertificateAccess(t *testing.T) {
	results := newFakeResults()
	owner := newUser("grace")
	unpaid := results.add(model.Result{TotalScore: 12, MaxScore: 45}, owner)
	paid := results.add(model.Result{TotalScore: 40, MaxScore: 45, TimeTakenSeconds: 600, CertificatePurchased: true}, owner)

	renderer := &fakeRenderer{}
	svc := NewCertificateService(results, renderer, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name     string
		resultID uuid.UUID
		userID   uuid.UUID
		wantErr  error
	}{
		{"missing", uuid.New(), owner.ID, ErrResultNotFound},
		{"foreign", paid.ID, uuid.New(), ErrNotResultOwner},
		{"foreign and unpaid", unpaid.ID, uuid.New(), ErrNotResultOwner},
		{"unpaid", unpaid.ID, owner.ID, ErrPaymentRequired},
		{"paid", paid.ID, owner.ID, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert, err := svc.ForOwner(ctx, tt.resultID, tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (cert.Filename != "IQ_Certificate_grace.pdf" || len(cert.PDF) == 0) {
				t.Errorf("certificate = %q (%d bytes)", cert.Filename, len(cert.PDF))
			}
		})
	}

	if len(renderer.rendered) != 1 {
		t.Fatalf("rendered %d certificates, want 1", len(renderer.rendered))
	}
	d := renderer.rendered[0]
	if d.Name != "grace" || d.Score != 40 || d.MaxScore != 45 || d.TimeTaken != 10*time.Minute {
		t.Errorf("render data = %+v", d)
	}
}

func TestCertificateVerification(t *testing.T) {
	results := newFakeResults()
	owner := newUser("alan")
	unpaid := results.add(model.Result{}, owner)
	paid := results.add(model.Result{CertificatePurchased: true}, owner)
	svc := NewCertificateService(results, &fakeRenderer{}, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.ForVerification(ctx, paid.ID); err != nil {
		t.Errorf("paid: %v", err)
	}
	if _, err := svc.ForVerification(ctx, unpaid.ID); !errors.Is(err, ErrPaymentRequired) {
		t.Errorf("unpaid err = %v, want ErrPaymentRequired", err)
	}
	if _, err := svc.ForVerification(ctx, uuid.New()); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("missing err = %v, want ErrResultNotFound", err)
	}
}
