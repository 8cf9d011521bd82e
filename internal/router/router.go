package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/iqscaler/iqscaler-backend/internal/config"
	"github.com/iqscaler/iqscaler-backend/internal/handler"
	"github.com/iqscaler/iqscaler-backend/internal/middleware"
	"github.com/iqscaler/iqscaler-backend/internal/response"
	"github.com/iqscaler/iqscaler-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Password    *handler.PasswordHandler
	Contact     *handler.ContactHandler
	User        *handler.UserHandler
	Question    *handler.QuestionHandler
	TestConfig  *handler.TestConfigHandler
	Quiz        *handler.QuizHandler
	Result      *handler.ResultHandler
	Certificate *handler.CertificateHandler
	Payment     *handler.PaymentHandler
	Media       *handler.MediaHandler
	WS          *handler.WSHandler
	Health      *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// The returned limiter must be stopped on shutdown.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) (*gin.Engine, *middleware.RateLimiter) {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	// Upload names are random UUIDs, so they can be cached for a year.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.Health.Health)

	requireAuth := middleware.RequireAuth(authService)

	// Rate limiter for auth and contact routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/leaderboard", handlers.Result.Leaderboard)
		publicAPI.GET("/certificates/verify/:id", middleware.NoStore(), handlers.Certificate.Verify)
		publicAPI.POST("/payments/notification", handlers.Payment.Notification)
		publicAPI.POST("/contact", authLimiter.Middleware(), handlers.Contact.Send)
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/forgot-password", authLimiter.Middleware(), handlers.Password.ForgotPassword)
		auth.PUT("/reset-password/:token", authLimiter.Middleware(), handlers.Password.ResetPassword)

		auth.POST("/logout", requireAuth, handlers.Auth.Logout)
		auth.GET("/me", requireAuth, handlers.Auth.Me)
	}

	// ─── 2. Quiz Group (JWT) ───────────────────────────────────────────
	quiz := router.Group("/api/v1/quiz")
	quiz.Use(requireAuth)
	{
		quiz.GET("/config", handlers.TestConfig.GetConfig)
		quiz.GET("/questions", handlers.Quiz.GetQuestions)
		quiz.POST("/submit", handlers.Quiz.Submit)
	}

	// ─── 3. Results, Certificates, Payments (JWT) ──────────────────────
	results := router.Group("/api/v1/results")
	results.Use(requireAuth)
	{
		results.GET("/mine", handlers.Result.ListMine)
		results.GET("/:id", handlers.Result.GetResult)
	}

	certificates := router.Group("/api/v1/certificates")
	certificates.Use(requireAuth, middleware.NoStore())
	{
		certificates.GET("/:id", handlers.Certificate.Download)
	}

	payments := router.Group("/api/v1/payments")
	payments.Use(requireAuth)
	{
		payments.POST("/create-order", handlers.Payment.CreateOrder)
		payments.POST("/verify", handlers.Payment.Verify)
	}

	// ─── 4. Admin Group (JWT + admin role) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(requireAuth, middleware.RequireAdmin())
	{
		adminAPI.GET("/users", handlers.User.ListUsers)
		adminAPI.PUT("/users/:id/role", handlers.User.UpdateRole)

		adminAPI.GET("/questions", handlers.Question.ListQuestions)
		adminAPI.GET("/questions/categories", handlers.Question.ListCategories)
		adminAPI.GET("/questions/:id", handlers.Question.GetQuestion)
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.PUT("/questions/:id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Question.DeleteQuestion)

		adminAPI.GET("/test-config", handlers.TestConfig.GetConfig)
		adminAPI.PUT("/test-config", handlers.TestConfig.UpdateConfig)

		adminAPI.POST("/media/upload", handlers.Media.UploadMedia)
	}

	// ─── 5. WebSocket Group (Public) ───────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/leaderboard", handlers.WS.LeaderboardStream)
	}

	return router, authLimiter
}
