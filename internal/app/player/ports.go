package player

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	// ErrNoActiveDevice indicates the remote surface reports no active
	// playback session. This is a normal outcome, not a fault.
	ErrNoActiveDevice = errors.New("no active device")

	// ErrTransferTimeout indicates a transfer was issued but the remote
	// surface never confirmed the target device within the wait budget.
	ErrTransferTimeout = errors.New("transfer not confirmed")

	// ErrDisposed indicates the engine has been disposed.
	ErrDisposed = errors.New("engine disposed")
)

// RemoteState is a snapshot reported by the remote control surface.
type RemoteState struct {
	DeviceID   string
	DeviceName string
	Playing    bool
	TrackURI   string
	ProgressMs int
}

// RemoteDevice describes one selectable output device known to the
// remote surface.
type RemoteDevice struct {
	ID     string
	Name   string
	Type   string
	Active bool
}

// RemoteController issues commands and queries against the remote control
// surface for whichever physical device is currently active.
// State returns ErrNoActiveDevice when no session is active anywhere.
type RemoteController interface {
	State(ctx context.Context) (*RemoteState, error)
	Resume(ctx context.Context, deviceID string) error
	Pause(ctx context.Context) error
	TransferPlayback(ctx context.Context, deviceID string, play bool) error
	PlayURI(ctx context.Context, uri string, positionMs int) error
	Devices(ctx context.Context) ([]RemoteDevice, error)
}

// LocalState is the playback state pushed by the embedded device.
type LocalState struct {
	Playing bool
}

// LocalHandlers receives push events from the embedded device.
// Any handler may be nil.
type LocalHandlers struct {
	Ready        func(deviceID string)
	NotReady     func(deviceID string)
	StateChanged func(state LocalState)
}

// LocalDevice is the embedded playback engine that registers as one
// selectable output device and pushes its own state changes.
type LocalDevice interface {
	// Subscribe registers the event handlers. A device that is already
	// ready should re-announce readiness to the new subscriber.
	Subscribe(h LocalHandlers)

	Resume(ctx context.Context) error
	Pause(ctx context.Context) error

	// Activate performs the device's user-gesture activation hook used to
	// unlock audio output on platforms that require it.
	Activate(ctx context.Context) error
}

// VisibilitySource reports whether the hosting page is visible, driving
// the remote poll cadence.
type VisibilitySource interface {
	Visible() bool
	// OnVisibilityChange registers a callback and returns a detach function.
	OnVisibilityChange(fn func(visible bool)) (cancel func())
}
