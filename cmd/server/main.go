package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/cache"
	"github.com/iqscaler/iqscaler-backend/internal/certificate"
	"github.com/iqscaler/iqscaler-backend/internal/config"
	"github.com/iqscaler/iqscaler-backend/internal/database"
	"github.com/iqscaler/iqscaler-backend/internal/handler"
	"github.com/iqscaler/iqscaler-backend/internal/logger"
	"github.com/iqscaler/iqscaler-backend/internal/mail"
	"github.com/iqscaler/iqscaler-backend/internal/payment"
	"github.com/iqscaler/iqscaler-backend/internal/repository"
	"github.com/iqscaler/iqscaler-backend/internal/router"
	"github.com/iqscaler/iqscaler-backend/internal/service"
	"github.com/iqscaler/iqscaler-backend/internal/validator"
	"github.com/iqscaler/iqscaler-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("payments", cfg.MidtransEnv).
		Msg("Starting IQ Scaler Backend")

	if cfg.MidtransServerKey == "" {
		log.Warn().Msg("MIDTRANS_SERVER_KEY not set, certificate purchases are disabled")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories & Caches ──────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	testConfigRepo := repository.NewTestConfigRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	denylist := cache.NewTokenDenylist(rdb)
	resetTokens := cache.NewResetTokens(rdb)
	quizCache := cache.NewQuizCache(rdb)
	leaderboard := cache.NewLeaderboard(rdb)

	mailer := mail.NewLogMailer(log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, denylist, log)
	passwordService := service.NewPasswordService(userRepo, resetTokens, mailer, authService, cfg.PublicBaseURL, log)
	contactService := service.NewContactService(mailer, cfg.ContactEmail, log)
	userService := service.NewUserService(userRepo)
	questionService := service.NewQuestionService(questionRepo, log)
	mediaService := service.NewMediaService(cfg, log)
	testConfigService := service.NewTestConfigService(testConfigRepo, quizCache, log)
	quizService := service.NewQuizService(questionRepo, resultRepo, testConfigService, quizCache, leaderboard, cfg.SubmitGrace, log)
	resultService := service.NewResultService(resultRepo, leaderboard, cfg.LeaderboardSize, log)
	certificateService := service.NewCertificateService(resultRepo,
		certificate.NewRenderer("IQ Scaler", cfg.PublicBaseURL), log)
	paymentService := service.NewPaymentService(resultRepo, paymentRepo,
		payment.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransEnv),
		service.PaymentConfig{
			Price:     cfg.CertificatePrice,
			Currency:  cfg.CertificateCurrency,
			ClientKey: cfg.MidtransClientKey,
		}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, log),
		Password:    handler.NewPasswordHandler(passwordService, log),
		Contact:     handler.NewContactHandler(contactService, log),
		User:        handler.NewUserHandler(userService),
		Question:    handler.NewQuestionHandler(questionService, log),
		TestConfig:  handler.NewTestConfigHandler(testConfigService, log),
		Quiz:        handler.NewQuizHandler(quizService, log),
		Result:      handler.NewResultHandler(resultService, log),
		Certificate: handler.NewCertificateHandler(certificateService, log),
		Payment:     handler.NewPaymentHandler(paymentService, log),
		Media:       handler.NewMediaHandler(mediaService, log),
		WS:          handler.NewWSHandler(leaderboard, resultService, log, cfg.AllowedOrigins),
		Health:      handler.NewHealthHandler(pool, rdb),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	leaderboardWorker := worker.NewLeaderboardWorker(leaderboard, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		leaderboardWorker.Start(workerCtx)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// The first Get seeds the default config and caches it; the first
	// leaderboard read rebuilds the sorted set from Postgres when empty.
	if _, err := testConfigService.Get(ctx); err != nil {
		log.Warn().Err(err).Msg("Test config prewarm failed")
	}
	if _, err := resultService.Leaderboard(ctx); err != nil {
		log.Warn().Err(err).Msg("Leaderboard prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r, authLimiter := router.SetupRouter(authService, handlers, cfg)
	defer authLimiter.Stop()

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the pending batch to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
