package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/questboard/internal/auth"
	"github.com/BradenHooton/questboard/internal/handlers"
	"github.com/BradenHooton/questboard/internal/middleware"
	pkghttp "github.com/BradenHooton/questboard/pkg/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries the settings the router needs beyond its handlers
type RouterConfig struct {
	Env            string
	AllowedOrigins []string
	LoginRateLimit middleware.RateLimitConfig
	StudentLimits  middleware.StudentRateLimitConfig
	RequestTimeout time.Duration
}

// NewRouter builds the application router with its global middleware stack
func NewRouter(
	cfg RouterConfig,
	authHandler *handlers.AuthHandler,
	missionHandler *handlers.MissionHandler,
	db handlers.Pinger,
	tokenManager *auth.TokenManager,
	ipExtractor *pkghttp.IPExtractor,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	router.Use(middleware.SecureLogger(logger, ipExtractor))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	router.Get("/health", handlers.Health(db))

	RegisterRoutes(router, cfg, authHandler, missionHandler, tokenManager, ipExtractor)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	cfg RouterConfig,
	authHandler *handlers.AuthHandler,
	missionHandler *handlers.MissionHandler,
	tokenManager *auth.TokenManager,
	ipExtractor *pkghttp.IPExtractor,
) {
	// Public routes - no authentication required
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(cfg.LoginRateLimit, ipExtractor))
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
	})

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByStudent(cfg.StudentLimits, "read"))
			r.Get("/missions/daily", missionHandler.GetDailyMissions)
			r.Get("/streak", missionHandler.GetStreak)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByStudent(cfg.StudentLimits, "write"))
			r.Post("/missions", missionHandler.CreateMission)
			r.Post("/missions/{missionID}/complete", missionHandler.CompleteMission)
			r.Post("/life-progress", missionHandler.RecordLifeProgress)
		})
	})
}
