package player

import (
	"context"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// reconcile re-queries the remote surface after a command and confirms it
// matches what the command should have produced. Any state notification
// already queued when the command completed may race the command's own
// side effects, so the verdict always comes from a fresh poll: short
// settle delay, one poll, one jittered retry, then degrade to unknown.
// A mismatch is logged, never raised: the originating command already
// succeeded, and an honest "don't know" beats a confident wrong answer.
func (e *Engine) reconcile(ctx context.Context) {
	exp := e.currentExpected()
	if exp == nil {
		return
	}

	if err := e.sleep(ctx, e.cfg.ReconcileSettleDelay); err != nil {
		return
	}

	for attempt := 0; attempt < 2; attempt++ {
		rs, err := e.remote.State(ctx)
		if err == nil && matchesExpected(*exp, rs) {
			e.commit(e.stateFromRemote(rs))
			return
		}
		if err != nil && !errors.Is(err, ErrNoActiveDevice) {
			zlog.Debug().Msgf("player: reconcile poll failed: %v", err)
		}
		if attempt == 0 {
			if err := e.sleep(ctx, e.reconcileJitter()); err != nil {
				return
			}
		}
	}

	zlog.Warn().Msg("player: command effect not verified, degrading to unknown")
	e.commitWith(func(cur PlaybackState) PlaybackState {
		cur.Playing = PlayingUnknown
		cur.LastSource = SourceUnknown
		return cur
	})
}

// matchesExpected compares only the fields the command actually set.
func matchesExpected(exp expectedState, rs *RemoteState) bool {
	if rs == nil {
		return false
	}
	if exp.deviceID != "" && rs.DeviceID != exp.deviceID {
		return false
	}
	if exp.playing != nil && rs.Playing != *exp.playing {
		return false
	}
	return true
}

func (e *Engine) reconcileJitter() time.Duration {
	lo, hi := e.cfg.ReconcileJitterMin, e.cfg.ReconcileJitterMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}
