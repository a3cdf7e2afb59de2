package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pitchready/refexam-backend/internal/config"
	"github.com/pitchready/refexam-backend/internal/handler"
	"github.com/pitchready/refexam-backend/internal/middleware"
	"github.com/pitchready/refexam-backend/internal/response"
	"github.com/pitchready/refexam-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Exam      *handler.ExamHandler
	Question  *handler.QuestionHandler
	Result    *handler.ResultHandler
	Analytics *handler.AnalyticsHandler
	Flagged   *handler.FlaggedHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. User Group (JWT) ───────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		// Exam session lifecycle
		api.POST("/exams", handlers.Exam.Start)
		api.GET("/exams/active", handlers.Exam.Active)
		api.POST("/exams/resume", handlers.Exam.Resume)
		api.PUT("/exams/active/answer", handlers.Exam.Answer)
		api.PUT("/exams/active/flag", handlers.Exam.Flag)
		api.PUT("/exams/active/position", handlers.Exam.GoTo)
		api.POST("/exams/active/next", handlers.Exam.Next)
		api.POST("/exams/active/prev", handlers.Exam.Prev)
		api.POST("/exams/active/submit", handlers.Exam.Submit)
		api.DELETE("/exams/active", handlers.Exam.Cancel)

		// Question corpus (read-only)
		api.GET("/questions/search", handlers.Question.Search)
		api.GET("/questions/categories", handlers.Question.CategoryCounts)

		// Result history
		api.GET("/results", handlers.Result.History)
		api.GET("/results/:id", handlers.Result.Get)
		api.DELETE("/results/:id", handlers.Result.Delete)
		api.DELETE("/results", handlers.Result.Clear)

		// Progress analytics
		api.GET("/analytics", handlers.Analytics.Overview)

		// Review library
		api.GET("/flagged", handlers.Flagged.List)
		api.POST("/flagged", handlers.Flagged.Toggle)
		api.DELETE("/flagged/:questionId", handlers.Flagged.Remove)
	}

	// ─── 3. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exams/stream", handlers.WS.ExamStream)
	}

	// ─── 4. Admin Group (JWT + admin role) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/questions", handlers.Question.List)
		adminAPI.GET("/questions/:id", handlers.Question.Get)
		adminAPI.POST("/questions", handlers.Question.Create)
		adminAPI.PUT("/questions/:id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:id", handlers.Question.Delete)
	}

	return router
}
