package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
)

// MemoryAttemptStore keeps login attempt windows in process memory.
// Windows are not shared between processes, so limits enforced through it are
// advisory once more than one instance serves logins.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string][]models.LoginAttempt
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{
		attempts: make(map[string][]models.LoginAttempt),
	}
}

// Append adds the attempt and drops entries that fell out of the window
// ending at the attempt's timestamp.
func (s *MemoryAttemptStore) Append(_ context.Context, attempt models.LoginAttempt, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.attempts[attempt.Identifier], attempt)
	s.attempts[attempt.Identifier] = retainAfter(history, attempt.AttemptTime.Add(-window))
	return nil
}

// Window returns the attempts strictly after since, oldest first
func (s *MemoryAttemptStore) Window(_ context.Context, identifier string, since time.Time) ([]models.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.attempts[identifier]
	if !ok {
		return nil, nil
	}

	retained := retainAfter(history, since)
	if len(retained) == 0 {
		delete(s.attempts, identifier)
		return nil, nil
	}
	s.attempts[identifier] = retained

	out := make([]models.LoginAttempt, len(retained))
	copy(out, retained)
	return out, nil
}

func (s *MemoryAttemptStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	delete(s.attempts, identifier)
	s.mu.Unlock()
	return nil
}

// Sweep drops every identifier whose newest attempt is at or before cutoff.
// Returns the number of identifiers removed.
func (s *MemoryAttemptStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for identifier, history := range s.attempts {
		if len(history) == 0 || !history[len(history)-1].AttemptTime.After(cutoff) {
			delete(s.attempts, identifier)
			removed++
		}
	}
	return removed
}

// Len reports how many identifiers are tracked
func (s *MemoryAttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

// retainAfter filters in place, keeping attempts newer than cutoff
func retainAfter(history []models.LoginAttempt, cutoff time.Time) []models.LoginAttempt {
	kept := history[:0]
	for _, a := range history {
		if a.AttemptTime.After(cutoff) {
			kept = append(kept, a)
		}
	}
	return kept
}
