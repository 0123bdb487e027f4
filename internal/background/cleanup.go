package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiredAttemptDeleter removes login attempt audit rows past their retention
type ExpiredAttemptDeleter interface {
	DeleteExpiredAttempts(ctx context.Context) (int64, error)
}

// WindowSweeper drops identifiers whose attempt window has gone stale
type WindowSweeper interface {
	Sweep(ctx context.Context) int
}

// CleanupManager periodically prunes login attempt state
type CleanupManager struct {
	attempts ExpiredAttemptDeleter
	sweeper  WindowSweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager. Either dependency may be nil.
func NewCleanupManager(
	attempts ExpiredAttemptDeleter,
	sweeper WindowSweeper,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CleanupManager{
		attempts: attempts,
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs cleanup immediately and then on every tick until Stop is called
// or ctx is cancelled
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single cleanup pass
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	if cm.sweeper != nil {
		if swept := cm.sweeper.Sweep(ctx); swept > 0 {
			cm.logger.Info("login windows swept", slog.Int("identifiers", swept))
		}
	}

	if cm.attempts == nil {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.attempts.DeleteExpiredAttempts(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to delete expired login attempts", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired login attempts deleted", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
