// Package player coordinates playback of a single logical audio stream
// across a local embedded playback device and a remote control surface.
package player

// Playing represents the verified playback status.
// Unknown means no device's state has been verified; the engine never guesses.
type Playing int

const (
	PlayingUnknown Playing = iota // No verified information
	PlayingYes                    // Confirmed playing
	PlayingNo                     // Confirmed paused
)

// String returns the string representation of the playing status.
func (p Playing) String() string {
	switch p {
	case PlayingYes:
		return "playing"
	case PlayingNo:
		return "paused"
	default:
		return "unknown"
	}
}

// Bool converts a confirmed status to a bool. Unknown maps to false.
func (p Playing) Bool() bool {
	return p == PlayingYes
}

// playingFromBool converts a remote/local boolean report to a Playing value.
func playingFromBool(b bool) Playing {
	if b {
		return PlayingYes
	}
	return PlayingNo
}

// Source identifies which listener path produced the current state.
type Source int

const (
	SourceUnknown    Source = iota // No verified source
	SourceLocalPush                // Pushed by the embedded device
	SourceRemotePoll               // Polled from the remote control surface
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceLocalPush:
		return "local-push"
	case SourceRemotePoll:
		return "remote-poll"
	default:
		return "unknown"
	}
}

// PlaybackState is the single reconciled view of what is playing where.
type PlaybackState struct {
	ActiveDeviceID    string  // Empty when no device is known to be active
	LocalDeviceActive bool    // True when the embedded device is the active one
	Playing           Playing // Tri-state; unknown until verified
	LastSource        Source  // Listener path that produced this state
}

// Equal reports whether two states are structurally identical.
func (s PlaybackState) Equal(o PlaybackState) bool {
	return s == o
}
