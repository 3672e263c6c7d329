package player

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ActivateAutoplayGuard unlocks playback-start commands. Call it from
// inside a genuine user gesture: it invokes the embedded device's
// activation hook, which performs the platform's audio unlock. Until this
// has succeeded once, SetPlaying(true) refuses to issue a command that the
// platform would block anyway.
func (e *Engine) ActivateAutoplayGuard(ctx context.Context) error {
	if e.local != nil {
		if err := e.local.Activate(ctx); err != nil {
			return errors.Wrap(err, "device activation failed")
		}
	}

	e.mu.Lock()
	already := e.autoplayUnlocked
	e.autoplayUnlocked = true
	e.mu.Unlock()

	if !already {
		zlog.Debug().Msg("player: autoplay guard activated")
	}
	return nil
}

// AutoplayUnlocked reports whether a playback-start command would be
// issued rather than gated.
func (e *Engine) AutoplayUnlocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoplayUnlocked
}
