package player

import (
	zlog "github.com/rs/zerolog/log"
)

// handleLocalReady adopts the embedded device as the active one, unless
// the transfer guard currently holds a different intended device, in which
// case the re-announcement is SDK chatter and is dropped.
func (e *Engine) handleLocalReady(deviceID string) {
	e.mu.Lock()
	e.localDeviceID = deviceID
	intended := e.intendedDevice
	suppressed := e.suppressLocal && intended != "" && intended != deviceID
	e.mu.Unlock()

	if suppressed {
		zlog.Debug().Msgf("player: dropping local ready for %q, transfer guard holds %q", deviceID, intended)
		return
	}

	e.commit(PlaybackState{
		ActiveDeviceID:    deviceID,
		LocalDeviceActive: true,
		Playing:           PlayingUnknown,
		LastSource:        SourceLocalPush,
	})
}

// handleLocalNotReady demotes the state to unknown when the device that
// went away was the active one.
func (e *Engine) handleLocalNotReady(deviceID string) {
	cur := e.State()
	if !cur.LocalDeviceActive || cur.ActiveDeviceID != deviceID {
		return
	}
	e.commit(PlaybackState{
		Playing:    PlayingUnknown,
		LastSource: SourceLocalPush,
	})
}

// handleLocalStateChanged adopts a pushed state change while the local
// device is the active one and the transfer guard's suppression is clear.
func (e *Engine) handleLocalStateChanged(ls LocalState) {
	e.mu.Lock()
	cur := e.state
	suppressed := e.suppressLocal
	e.mu.Unlock()

	if !cur.LocalDeviceActive {
		return
	}
	if suppressed {
		zlog.Debug().Msgf("player: dropping local state change (playing=%t), transfer in progress", ls.Playing)
		return
	}

	next := cur
	next.Playing = playingFromBool(ls.Playing)
	next.LastSource = SourceLocalPush
	e.commit(next)
}
