package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/questboard/internal/auth"
	"github.com/BradenHooton/questboard/internal/background"
	"github.com/BradenHooton/questboard/internal/config"
	"github.com/BradenHooton/questboard/internal/database"
	"github.com/BradenHooton/questboard/internal/handlers"
	"github.com/BradenHooton/questboard/internal/middleware"
	"github.com/BradenHooton/questboard/internal/repositories"
	"github.com/BradenHooton/questboard/internal/routes"
	"github.com/BradenHooton/questboard/internal/services"
	pkghttp "github.com/BradenHooton/questboard/pkg/http"
	pkglogger "github.com/BradenHooton/questboard/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("rate_limit_backend", cfg.RateLimit.Backend),
		slog.String("mission_timezone", cfg.Missions.Timezone),
	)

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	studentRepo := repositories.NewStudentRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	missionRepo := repositories.NewMissionRepository(db)

	windowStore, closeWindowStore, err := newAttemptWindowStore(cfg.RateLimit, logger)
	if err != nil {
		logger.Error("failed to initialize login attempt store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeWindowStore()

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Login rate limiter
	rateLimitConfig := services.DefaultRateLimitConfig()
	rateLimitConfig.Window = cfg.RateLimit.LoginWindow
	rateLimitConfig.MaxFailedAttempts = cfg.RateLimit.MaxFailedAttempts
	limiter := services.NewLoginRateLimiter(windowStore, loginAttemptRepo, rateLimitConfig, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)

	// Initialize services
	missionConfig := services.DefaultMissionConfig()
	missionConfig.Location = cfg.Missions.Location
	missionConfig.SuggestionThreshold = cfg.Missions.SuggestionThreshold
	missionConfig.SuggestionXP = cfg.Missions.SuggestionXP

	authService := services.NewAuthService(studentRepo, limiter, tokenManager, logger, auditLogger)
	missionService := services.NewMissionService(missionRepo, missionConfig, logger, auditLogger)

	// Initialize handlers
	ipExtractor := pkghttp.NewIPExtractor(cfg.Server.TrustedProxies)
	authHandler := handlers.NewAuthHandler(authService, ipExtractor, logger)
	missionHandler := handlers.NewMissionHandler(missionService, logger)

	router := routes.NewRouter(
		routes.RouterConfig{
			Env:            cfg.Server.Env,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			LoginRateLimit: middleware.RateLimitConfig{RequestsPerMinute: cfg.Auth.LoginRequestsPerMin},
			StudentLimits:  middleware.DefaultStudentRateLimit(),
			RequestTimeout: 60 * time.Second,
		},
		authHandler,
		missionHandler,
		db,
		tokenManager,
		ipExtractor,
		logger,
	)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(loginAttemptRepo, limiter, logger, cfg.Auth.CleanupInterval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Flush pending login audit writes before the pool closes
	limiter.Close()

	logger.Info("server stopped gracefully")
}

// newAttemptWindowStore picks the login window backend. The returned func
// releases any connection the store holds.
func newAttemptWindowStore(cfg config.RateLimitConfig, logger *slog.Logger) (services.AttemptWindowStore, func(), error) {
	if cfg.Backend != config.RateLimitBackendRedis {
		return repositories.NewMemoryAttemptStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	logger.Info("using redis login attempt store", slog.String("addr", cfg.RedisAddr))
	return repositories.NewRedisAttemptStore(client), func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}, nil
}
