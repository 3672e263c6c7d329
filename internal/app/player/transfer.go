package player

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// TransferTo moves playback to deviceID. The intended device and the
// local-push suppression flag are recorded before the remote transfer is
// issued, so mid-transfer "ready" re-announcements from the embedded
// device cannot pull the active device back to local. When the target is
// an external device the suppression is sticky: it persists until the
// user transfers again. desiredPlaying may be nil to leave the playback
// status up to the remote surface (the transfer itself is issued with
// play=false in that case).
//
// The transfer is only treated as settled once the remote surface reports
// the target device; otherwise ErrTransferTimeout is returned.
func (e *Engine) TransferTo(ctx context.Context, deviceID string, desiredPlaying *bool) error {
	if deviceID == "" {
		return errors.New("device id is required")
	}
	return e.executeCommand(ctx, func(ctx context.Context) error {
		e.mu.Lock()
		e.intendedDevice = deviceID
		e.suppressLocal = true
		if e.suppressCancel != nil {
			e.suppressCancel()
			e.suppressCancel = nil
		}
		localID := e.localDeviceID
		e.mu.Unlock()

		play := desiredPlaying != nil && *desiredPlaying
		e.setExpected(&expectedState{deviceID: deviceID, playing: desiredPlaying})
		defer e.clearExpected()

		zlog.Info().Msgf("player: transferring playback to %q (play=%t)", deviceID, play)
		if err := e.remote.TransferPlayback(ctx, deviceID, play); err != nil {
			return errors.Wrapf(err, "transfer to %s failed", deviceID)
		}

		rs, err := e.waitForTransfer(ctx, deviceID, desiredPlaying)
		if err != nil {
			return err
		}

		e.commit(e.stateFromRemote(rs))

		// External-device selection is sticky. Only a transfer back to the
		// local device releases the suppression, after a short grace window
		// for the SDK to settle.
		if localID != "" && deviceID == localID {
			e.scheduleSuppressionRelease()
		}
		return nil
	})
}

// waitForTransfer polls the remote surface until it reports the target
// device (and, when requested, the target playback status) or the wait
// budget is exhausted.
func (e *Engine) waitForTransfer(ctx context.Context, deviceID string, desired *bool) (*RemoteState, error) {
	for i := 0; i < e.cfg.TransferPollAttempts; i++ {
		rs, err := e.remote.State(ctx)
		switch {
		case errors.Is(err, ErrNoActiveDevice):
			// Not settled yet.
		case err != nil:
			zlog.Debug().Msgf("player: transfer wait poll failed: %v", err)
		case rs.DeviceID == deviceID && (desired == nil || rs.Playing == *desired):
			return rs, nil
		}

		if i < e.cfg.TransferPollAttempts-1 {
			if err := e.sleep(ctx, e.cfg.TransferPollInterval); err != nil {
				return nil, err
			}
		}
	}
	return nil, errors.Wrapf(ErrTransferTimeout, "device %s", deviceID)
}

func (e *Engine) scheduleSuppressionRelease() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suppressCancel != nil {
		e.suppressCancel()
	}
	t := time.AfterFunc(e.cfg.SuppressionGrace, func() {
		e.mu.Lock()
		e.suppressLocal = false
		e.suppressCancel = nil
		e.mu.Unlock()
		zlog.Debug().Msg("player: local-push suppression released")
	})
	e.suppressCancel = func() { t.Stop() }
}
