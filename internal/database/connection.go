package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/questboard/internal/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "questboard"

// DB owns the pgx pool shared by every repository
type DB struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewConnection opens the pool and waits for Postgres to accept connections.
// Each attempt is bounded by cfg.ConnectTimeout; attempts back off
// exponentially from one second up to ten.
func NewConnection(cfg *config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var pool *pgxpool.Pool
	err = retry(context.Background(), cfg.ConnectAttempts, time.Second, 10*time.Second, func(ctx context.Context, attempt int) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return fmt.Errorf("unable to create connection pool: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			logger.Warn("postgres not ready",
				slog.String("host", cfg.Host),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return fmt.Errorf("unable to ping database: %w", err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("connected to mission store",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Name),
		slog.Int("max_conns", int(cfg.MaxConns)),
	)

	return &DB{Pool: pool, logger: logger}, nil
}

// NewFromPool wraps an existing pool, used by tests that manage their own container
func NewFromPool(pool *pgxpool.Pool, logger *slog.Logger) *DB {
	return &DB{Pool: pool, logger: logger}
}

// retry calls fn until it succeeds, attempts are used up or ctx ends.
// The delay starts at base and grows exponentially up to ceiling.
func retry(ctx context.Context, attempts int, base, ceiling time.Duration, fn func(ctx context.Context, attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = base
	policy.MaxInterval = ceiling
	policy.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		return fn(ctx, attempt)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx))
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
	}
	return err
}

func (db *DB) Close() {
	if db.logger != nil {
		db.logger.Info("closing mission store pool")
	}
	db.Pool.Close()
}

// HealthCheck pings Postgres for the /health endpoint
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
