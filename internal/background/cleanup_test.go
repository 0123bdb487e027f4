package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeDeleter struct {
	calls atomic.Int32
	err   error
}

func (f *fakeDeleter) DeleteExpiredAttempts(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

type fakeSweeper struct {
	calls atomic.Int32
}

func (f *fakeSweeper) Sweep(ctx context.Context) int {
	f.calls.Add(1)
	return 1
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnce_CallsBothCleanups(t *testing.T) {
	deleter := &fakeDeleter{}
	sweeper := &fakeSweeper{}
	cm := NewCleanupManager(deleter, sweeper, discardLogger(), time.Minute)

	cm.RunOnce(context.Background())

	assert.EqualValues(t, 1, deleter.calls.Load())
	assert.EqualValues(t, 1, sweeper.calls.Load())
}

func TestRunOnce_DeleteErrorDoesNotSkipSweep(t *testing.T) {
	deleter := &fakeDeleter{err: errors.New("db down")}
	sweeper := &fakeSweeper{}
	cm := NewCleanupManager(deleter, sweeper, discardLogger(), time.Minute)

	cm.RunOnce(context.Background())

	assert.EqualValues(t, 1, sweeper.calls.Load())
}

func TestRunOnce_NilDependencies(t *testing.T) {
	cm := NewCleanupManager(nil, nil, discardLogger(), time.Minute)
	assert.NotPanics(t, func() { cm.RunOnce(context.Background()) })
}

func TestStart_RunsImmediatelyAndStops(t *testing.T) {
	deleter := &fakeDeleter{}
	cm := NewCleanupManager(deleter, nil, discardLogger(), 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return deleter.calls.Load() >= 2 }, time.Second, time.Millisecond)

	cm.Stop()
	cm.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager did not stop")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	cm := NewCleanupManager(&fakeDeleter{}, nil, discardLogger(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager ignored context cancellation")
	}
}
