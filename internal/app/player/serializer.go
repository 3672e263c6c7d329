package player

import (
	"context"
	"time"
)

// executeCommand runs op only after all previously queued commands,
// including their reconciliation, have finished. At most one mutating
// command is ever in flight: out-of-order application (a stale pause
// landing after a newer transfer) is how audio ends up on the wrong
// device. If op fails the error propagates to the caller, but the gate is
// always released so later commands are not blocked.
func (e *Engine) executeCommand(ctx context.Context, op func(context.Context) error) error {
	if e.ctx.Err() != nil {
		return ErrDisposed
	}
	select {
	case e.cmdGate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return ErrDisposed
	}
	defer func() { <-e.cmdGate }()

	if e.ctx.Err() != nil {
		return ErrDisposed
	}
	return op(ctx)
}

// sleep waits for d, honoring both the caller context and engine teardown.
func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return ErrDisposed
	}
}
