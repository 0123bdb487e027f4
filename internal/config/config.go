package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit window store backends
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Missions  MissionConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
	ConnectAttempts   int
	RunMigrations     bool
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret           string
	AccessTokenExpiry   time.Duration
	LoginRequestsPerMin int
	CleanupInterval     time.Duration
}

type RateLimitConfig struct {
	Backend           string
	LoginWindow       time.Duration
	MaxFailedAttempts int
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
}

type MissionConfig struct {
	Timezone            string
	Location            *time.Location
	SuggestionThreshold int
	SuggestionXP        int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "questboard"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			ConnectTimeout:    getEnvAsDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
			ConnectAttempts:   getEnvAsInt("DB_CONNECT_ATTEMPTS", 5),
			RunMigrations:     getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:           jwtSecret,
			AccessTokenExpiry:   getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour),
			LoginRequestsPerMin: getEnvAsInt("LOGIN_IP_RATE_PER_MINUTE", 20),
			CleanupInterval:     getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Backend:           strings.ToLower(getEnv("RATE_LIMIT_BACKEND", RateLimitBackendMemory)),
			LoginWindow:       getEnvAsDuration("LOGIN_WINDOW", 15*time.Minute),
			MaxFailedAttempts: getEnvAsInt("LOGIN_MAX_FAILED_ATTEMPTS", 5),
			RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:     getEnv("REDIS_PASSWORD", ""),
			RedisDB:           getEnvAsInt("REDIS_DB", 0),
		},
		Missions: MissionConfig{
			Timezone:            getEnv("MISSION_TIMEZONE", "UTC"),
			SuggestionThreshold: getEnvAsInt("SUGGESTION_THRESHOLD", 70),
			SuggestionXP:        getEnvAsInt("SUGGESTION_XP", 100),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.RateLimit.validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Missions.Timezone)
	if err != nil {
		return nil, fmt.Errorf("MISSION_TIMEZONE %q is not a valid time zone: %w", cfg.Missions.Timezone, err)
	}
	cfg.Missions.Location = loc

	return cfg, nil
}

func (c *RateLimitConfig) validate() error {
	switch c.Backend {
	case RateLimitBackendMemory, RateLimitBackendRedis:
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q (got %q)",
			RateLimitBackendMemory, RateLimitBackendRedis, c.Backend)
	}
	if c.LoginWindow <= 0 {
		return fmt.Errorf("LOGIN_WINDOW must be positive")
	}
	if c.MaxFailedAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_FAILED_ATTEMPTS must be at least 1")
	}
	return nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		return splitList(originsStr)
	}

	// Development: the dashboard dev servers
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
