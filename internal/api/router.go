package api

import (
	"log/slog"
	"os"
	"strings"

	"github.com/canis-majoris/instantly-assignment-v3/internal/api/handlers"
	"github.com/canis-majoris/instantly-assignment-v3/internal/api/middleware"
	"github.com/canis-majoris/instantly-assignment-v3/internal/events"
	"github.com/canis-majoris/instantly-assignment-v3/internal/logger"
	"github.com/canis-majoris/instantly-assignment-v3/internal/repository"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB             *gorm.DB
	Hub            *events.Hub
	Logger         *slog.Logger
	Audit          *logger.AuditLogger
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      float64  // Requests per second per IP (0 = disabled)
	RateBurst      int      // Burst size for rate limiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.SecureHeaders())

	if len(cfg.AllowedOrigins) > 0 {
		os.Setenv("ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, ","))
	}
	e.Use(middleware.SecureCORS())

	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger))
	}

	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// Initialize repositories
	emailRepo := repository.NewEmailRepository(cfg.DB)
	statsRepo := repository.NewStatsRepository(cfg.DB)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	emailHandler := handlers.NewEmailHandler(emailRepo, statsRepo, cfg.Hub, cfg.Audit)

	// Health routes
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// API routes
	api := e.Group("/api")

	emails := api.Group("/emails")
	emails.GET("", emailHandler.List)
	emails.POST("", emailHandler.Create)
	emails.PATCH("", emailHandler.Update)
	emails.DELETE("", emailHandler.Delete)
	emails.GET("/stats", emailHandler.Stats)
	emails.GET("/thread/:threadId", emailHandler.Thread)

	if cfg.Hub != nil {
		eventsHandler := handlers.NewEventsHandler(cfg.Hub, cfg.Logger)
		api.GET("/events", eventsHandler.Subscribe)
	}

	return e
}
