package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/iqscaler/iqscaler-backend/internal/config"
	"github.com/iqscaler/iqscaler-backend/internal/model"
)

func newTestAuth(expiry time.Duration) (*AuthService, *fakeDenylist) {
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: expiry, BcryptCost: bcrypt.MinCost}
	deny := &fakeDenylist{}
	return NewAuthService(cfg, newFakeUsers(), deny, zerolog.Nop()), deny
}

func TestRegisterLoginLogout(t *testing.T) {
	svc, deny := newTestAuth(time.Hour)
	ctx := context.Background()

	reg, err := svc.Register(ctx, model.RegisterRequest{Name: "Ada", Username: "ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Role != model.RoleUser || reg.Token == "" {
		t.Fatalf("register response = %+v", reg)
	}

	if _, err := svc.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}

	login, err := svc.Login(ctx, model.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := svc.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Username != "ada" || claims.IsAdmin() {
		t.Errorf("claims = %+v", claims)
	}

	me, err := svc.Me(ctx, claims)
	if err != nil || me.Email != "ada@example.com" {
		t.Errorf("Me = %+v, %v", me, err)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if ttl := deny.revoked[claims.ID]; ttl <= 0 || ttl > time.Hour {
		t.Errorf("denylist ttl = %v", ttl)
	}
	if _, err := svc.Authenticate(ctx, login.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Authenticate after logout = %v, want ErrTokenRevoked", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newTestAuth(time.Hour)
	ctx := context.Background()
	base := model.RegisterRequest{Name: "Ada", Username: "ada", Email: "ada@example.com", Password: "secret1"}
	if _, err := svc.Register(ctx, base); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sameEmail := base
	sameEmail.Username = "other"
	if _, err := svc.Register(ctx, sameEmail); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email err = %v, want ErrEmailTaken", err)
	}

	sameUsername := base
	sameUsername.Email = "other@example.com"
	if _, err := svc.Register(ctx, sameUsername); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username err = %v, want ErrUsernameTaken", err)
	}
}

func TestValidateToken(t *testing.T) {
	svc, _ := newTestAuth(-time.Minute)
	user := &model.User{Username: "old", Role: model.RoleAdmin}
	user.ID[0] = 1

	expired, _, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.ValidateToken(expired); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token err = %v, want ErrTokenExpired", err)
	}

	if _, err := svc.ValidateToken("not.a.jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("garbage token err = %v, want ErrTokenInvalid", err)
	}

	foreign := NewAuthService(&config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour}, newFakeUsers(), &fakeDenylist{}, zerolog.Nop())
	forged, _, err := foreign.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.ValidateToken(forged); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("token with foreign signature err = %v, want ErrTokenInvalid", err)
	}
}
