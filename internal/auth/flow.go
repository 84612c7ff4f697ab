package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

var ErrFlowRunning = errors.New("PIN authorization already in progress")

// PinFlow runs PIN authorization in the background: it requests a PIN,
// returns it to the caller immediately, then waits for approval. At most
// one flow runs at a time.
type PinFlow struct {
	lifecycle  *Lifecycle
	onApproved func(ctx context.Context)
	logger     *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewPinFlow creates a PIN flow runner. onApproved, if set, runs after the
// tokens are saved.
func NewPinFlow(lifecycle *Lifecycle, onApproved func(ctx context.Context), logger *slog.Logger) *PinFlow {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PinFlow{
		lifecycle:  lifecycle,
		onApproved: onApproved,
		logger:     logger.With("component", "pin_flow"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start requests a PIN and waits for approval in the background. When a
// flow is already running it returns the pending request and
// ErrFlowRunning.
func (f *PinFlow) Start(ctx context.Context) (*AuthorizationRequest, error) {
	if !f.running.CompareAndSwap(false, true) {
		return f.lifecycle.Status().Pending, ErrFlowRunning
	}

	req, err := f.lifecycle.RequestPin(ctx)
	if err != nil {
		f.running.Store(false)
		return nil, err
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer f.running.Store(false)

		if _, err := f.lifecycle.WaitForApproval(f.ctx, req); err != nil {
			f.logger.Error("PIN authorization failed", "pin_session", req.ID, "error", err)
			return
		}
		if f.onApproved != nil {
			f.onApproved(f.ctx)
		}
	}()

	return req, nil
}

// Running reports whether a flow is in progress
func (f *PinFlow) Running() bool {
	return f.running.Load()
}

// Wait blocks until the background flow, if any, has finished
func (f *PinFlow) Wait() {
	f.wg.Wait()
}

// Close cancels a running flow and waits for it to exit
func (f *PinFlow) Close() {
	f.cancel()
	f.wg.Wait()
}
