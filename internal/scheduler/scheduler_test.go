package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecobeehub/internal/core"
)

// Mock implementations

type mockPoller struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (m *mockPoller) Poll(ctx context.Context) (*core.PollResult, error) {
	m.calls.Add(1)
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
		}
	}
	if m.err != nil {
		return &core.PollResult{CycleID: "poll_test"}, m.err
	}
	return &core.PollResult{CycleID: "poll_test", Changed: []string{"1"}}, nil
}

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestScheduler_Tick(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantLog string
	}{
		{name: "success", wantLog: "Scheduler tick"},
		{name: "not authorized", err: core.ErrNotAuthorized, wantLog: "waiting for authorization"},
		{name: "failure", err: errors.New("summary failed"), wantLog: "Poll cycle failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &syncBuffer{}
			logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
			poller := &mockPoller{err: tt.err}
			s := NewScheduler(poller, time.Second, logger)

			s.tick(context.Background())

			assert.Equal(t, int32(1), poller.calls.Load())
			assert.Contains(t, out.String(), tt.wantLog)
		})
	}
}

func TestScheduler_TickCancelledContext(t *testing.T) {
	poller := &mockPoller{}
	s := NewScheduler(poller, time.Second, createTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.tick(ctx)

	assert.Zero(t, poller.calls.Load())
}

func TestScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(&mockPoller{}, 0, nil)
	assert.Equal(t, DefaultInterval, s.interval)
}

func TestScheduler_StartStop(t *testing.T) {
	poller := &mockPoller{}
	s := NewScheduler(poller, time.Second, createTestLogger())

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))

	require.Eventually(t, func() bool {
		return poller.calls.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	s.Stop()
	calls := poller.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, calls, poller.calls.Load())
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	poller := &mockPoller{block: make(chan struct{})}
	s := NewScheduler(poller, time.Second, createTestLogger())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return poller.calls.Load() == 1
	}, 3*time.Second, 50*time.Millisecond)

	// Further ticks fire while the first run is blocked
	time.Sleep(2200 * time.Millisecond)
	assert.Equal(t, int32(1), poller.calls.Load())

	close(poller.block)
	s.Stop()
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	poller := &mockPoller{block: make(chan struct{})}
	s := NewScheduler(poller, time.Second, createTestLogger())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return poller.calls.Load() == 1
	}, 3*time.Second, 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a job was running")
	}
}
