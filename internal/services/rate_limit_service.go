package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
)

// AttemptWindowStore holds the trailing window of login attempts per identifier
type AttemptWindowStore interface {
	// Append records the attempt and drops entries older than window,
	// measured back from the attempt's own timestamp
	Append(ctx context.Context, attempt models.LoginAttempt, window time.Duration) error
	// Window returns attempts strictly after since, oldest first
	Window(ctx context.Context, identifier string, since time.Time) ([]models.LoginAttempt, error)
	Clear(ctx context.Context, identifier string) error
}

// AttemptAuditor persists login attempts for later review
type AttemptAuditor interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
}

// sweepableStore is implemented by stores that need explicit garbage collection
type sweepableStore interface {
	Sweep(cutoff time.Time) int
}

// RateLimitConfig holds configuration for login throttling
type RateLimitConfig struct {
	Window            time.Duration
	MaxFailedAttempts int
	AuditRetention    time.Duration // how long audit rows are kept; defaults to 2x Window
	AuditTimeout      time.Duration // bound on each async audit write
}

// DefaultRateLimitConfig is 5 failures per 15 minutes
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:            15 * time.Minute,
		MaxFailedAttempts: 5,
	}
}

// LoginRateLimiter bounds failed login attempts per identifier over a
// sliding window. Construct one per process and Close it on shutdown.
type LoginRateLimiter struct {
	store   AttemptWindowStore
	auditor AttemptAuditor
	config  RateLimitConfig
	logger  *slog.Logger
	now     func() time.Time

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewLoginRateLimiter creates a limiter. auditor may be nil.
func NewLoginRateLimiter(store AttemptWindowStore, auditor AttemptAuditor, config RateLimitConfig, logger *slog.Logger) *LoginRateLimiter {
	defaults := DefaultRateLimitConfig()
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.MaxFailedAttempts <= 0 {
		config.MaxFailedAttempts = defaults.MaxFailedAttempts
	}
	if config.AuditRetention <= 0 {
		config.AuditRetention = 2 * config.Window
	}
	if config.AuditTimeout <= 0 {
		config.AuditTimeout = 5 * time.Second
	}

	return &LoginRateLimiter{
		store:   store,
		auditor: auditor,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the limiter's time source
func (l *LoginRateLimiter) WithClock(now func() time.Time) *LoginRateLimiter {
	l.now = now
	return l
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// CheckLoginRateLimit decides whether identifier may attempt a login now.
// Once MaxFailedAttempts failures sit inside the window the identifier is
// locked until the oldest of them ages out. Store failures are logged and
// the attempt is allowed.
func (l *LoginRateLimiter) CheckLoginRateLimit(ctx context.Context, identifier string) (models.RateDecision, error) {
	identifier = normalizeIdentifier(identifier)
	now := l.now()

	attempts, err := l.store.Window(ctx, identifier, now.Add(-l.config.Window))
	if err != nil {
		l.logger.Error("failed to read login attempt window",
			slog.Any("error", err))
		return models.RateDecision{Allowed: true, ResetAt: now.Add(l.config.Window)}, nil
	}

	var failed int
	var oldestFailed time.Time
	for _, a := range attempts {
		if a.Success {
			continue
		}
		if failed == 0 || a.AttemptTime.Before(oldestFailed) {
			oldestFailed = a.AttemptTime
		}
		failed++
	}

	if failed >= l.config.MaxFailedAttempts {
		resetAt := oldestFailed.Add(l.config.Window)
		l.logger.Warn("login rate limited",
			slog.Int("failed_attempts", failed),
			slog.Time("reset_at", resetAt))
		return models.RateDecision{Allowed: false, ResetAt: resetAt, FailedAttempts: failed}, nil
	}

	return models.RateDecision{Allowed: true, ResetAt: now.Add(l.config.Window), FailedAttempts: failed}, nil
}

// LogLoginAttempt appends the attempt to the identifier's window and writes
// an audit row in the background. Audit failures are logged, never returned.
func (l *LoginRateLimiter) LogLoginAttempt(ctx context.Context, identifier string, success bool) error {
	now := l.now()
	attempt := models.LoginAttempt{
		Identifier:  normalizeIdentifier(identifier),
		Success:     success,
		AttemptTime: now,
		ExpiresAt:   now.Add(l.config.AuditRetention),
	}

	if err := l.store.Append(ctx, attempt, l.config.Window); err != nil {
		return err
	}

	l.audit(attempt)
	return nil
}

func (l *LoginRateLimiter) audit(attempt models.LoginAttempt) {
	if l.auditor == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.config.AuditTimeout)
		defer cancel()

		if err := l.auditor.RecordAttempt(ctx, &attempt); err != nil {
			l.logger.Error("failed to record login attempt audit",
				slog.Bool("success", attempt.Success),
				slog.Any("error", err))
		}
	}()
}

// ClearAttempts discards all history for identifier
func (l *LoginRateLimiter) ClearAttempts(ctx context.Context, identifier string) error {
	return l.store.Clear(ctx, normalizeIdentifier(identifier))
}

// Sweep drops identifiers whose windows have fully expired. Stores that
// expire entries on their own are left alone.
func (l *LoginRateLimiter) Sweep(ctx context.Context) int {
	s, ok := l.store.(sweepableStore)
	if !ok {
		return 0
	}
	removed := s.Sweep(l.now().Add(-l.config.Window))
	if removed > 0 {
		l.logger.DebugContext(ctx, "swept login attempt windows", slog.Int("identifiers", removed))
	}
	return removed
}

// Close stops accepting audit writes and waits for in-flight ones
func (l *LoginRateLimiter) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}
