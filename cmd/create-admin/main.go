package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/iqscaler/iqscaler-backend/internal/config"
	"github.com/iqscaler/iqscaler-backend/internal/database"
	"github.com/iqscaler/iqscaler-backend/internal/logger"
	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
	"github.com/iqscaler/iqscaler-backend/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Account creation never consults the token denylist, so Redis is not dialed.
	users := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg, users, nil, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin User ===")

	email := prompt(reader, "Enter Email: ")
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// An existing account is promoted instead of duplicated.
	if existing, err := users.GetByEmail(ctx, email); err == nil {
		promote(ctx, log, users, existing)
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Fatal().Err(err).Msg("Failed to look up email")
	}

	name := prompt(reader, "Enter Name: ")
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	username := prompt(reader, "Enter Username: ")
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	admin, err := authService.CreateUser(ctx, model.RegisterRequest{
		Name:     name,
		Username: username,
		Email:    email,
		Password: password,
	}, model.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			fmt.Println("Error: Username is already taken")
		case errors.Is(err, service.ErrEmailTaken):
			fmt.Println("Error: Email is already registered")
		default:
			log.Fatal().Err(err).Msg("Failed to create admin")
		}
		return
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %s\n", admin.Name, admin.Email, admin.ID)
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func promote(ctx context.Context, log zerolog.Logger, users *repository.UserRepository, u *model.User) {
	if u.IsAdmin() {
		fmt.Printf("'%s' is already an admin\n", u.Email)
		return
	}
	if err := users.UpdateRole(ctx, u.ID, model.RoleAdmin); err != nil {
		log.Fatal().Err(err).Msg("Failed to promote user")
	}
	fmt.Printf("\nSuccess! Existing user '%s' (%s) promoted to admin\n", u.Name, u.Email)
}
