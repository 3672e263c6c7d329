package player

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// pollLoop queries the remote surface while the local device is not
// confirmed active. The cadence shortens while the page is visible and
// lengthens while hidden; a visibility transition reschedules the next
// poll immediately.
func (e *Engine) pollLoop() {
	timer := time.NewTimer(e.pollInterval())
	defer timer.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.pollReset:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(e.pollInterval())
		case <-timer.C:
			if !e.localConfirmedActive() {
				if err := e.pollOnce(e.ctx); err != nil && !errors.Is(err, context.Canceled) {
					zlog.Debug().Msgf("player: remote poll failed: %v", err)
				}
			}
			timer.Reset(e.pollInterval())
		}
	}
}

// pollOnce queries the remote surface once and commits the result.
// A "no active session" report keeps the status unknown: nothing playing
// anywhere must not be conflated with a confirmed pause.
func (e *Engine) pollOnce(ctx context.Context) error {
	rs, err := e.remote.State(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveDevice) {
			e.commit(e.noSessionState())
			return nil
		}
		return errors.Wrap(err, "remote state query failed")
	}
	e.commit(e.stateFromRemote(rs))
	return nil
}

func (e *Engine) pollInterval() time.Duration {
	if e.visibility == nil || e.visibility.Visible() {
		return e.cfg.VisiblePollInterval
	}
	return e.cfg.HiddenPollInterval
}

func (e *Engine) localConfirmedActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.LocalDeviceActive
}

func (e *Engine) handleVisibilityChange(visible bool) {
	zlog.Debug().Msgf("player: visibility changed: visible=%t", visible)
	select {
	case e.pollReset <- struct{}{}:
	default:
	}
}
