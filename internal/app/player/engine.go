package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// expectedState describes what the in-flight command should produce.
// Only the fields the command actually set are compared during
// reconciliation. Owned exclusively by that command.
type expectedState struct {
	deviceID string // empty = not set by the command
	playing  *bool  // nil = not set by the command
}

// Engine reconciles the local embedded device and the remote control
// surface into one PlaybackState and issues serialized commands against
// whichever device is active.
type Engine struct {
	mu sync.Mutex

	// notifyMu serializes subscriber deliveries: commits notify in
	// order, and a new subscriber's initial call lands before any
	// later commit's notification.
	notifyMu sync.Mutex

	cfg        Config
	remote     RemoteController
	local      LocalDevice      // nil when no embedded device is present
	visibility VisibilitySource // nil when page visibility does not apply

	state       PlaybackState
	subscribers map[string]func(PlaybackState)

	expected *expectedState

	// Device transfer guard
	intendedDevice string
	suppressLocal  bool
	suppressCancel func()

	localDeviceID    string
	autoplayUnlocked bool

	cmdGate   chan struct{}
	pollReset chan struct{}

	visCancel func()

	ctx      context.Context
	cancel   context.CancelFunc
	disposed bool
}

// New creates an engine. The initial state is fully unknown; the remote
// poller starts immediately and the local device (if any) is subscribed for
// push events.
func New(cfg Config, remote RemoteController, local LocalDevice, visibility VisibilitySource) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:         cfg,
		remote:      remote,
		local:       local,
		visibility:  visibility,
		subscribers: make(map[string]func(PlaybackState)),
		cmdGate:     make(chan struct{}, 1),
		pollReset:   make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
	}

	if local != nil {
		local.Subscribe(LocalHandlers{
			Ready:        e.handleLocalReady,
			NotReady:     e.handleLocalNotReady,
			StateChanged: e.handleLocalStateChanged,
		})
	}
	if visibility != nil {
		e.visCancel = visibility.OnVisibilityChange(e.handleVisibilityChange)
	}

	go e.pollLoop()

	return e
}

// State returns the current reconciled playback state.
func (e *Engine) State() PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// OnChange registers a callback that receives the full PlaybackState on
// every committed change. The callback is invoked immediately with the
// current state, so subscribers never special-case the first call.
// Deliveries are serialized in commit order; a callback must not call
// back into the engine's mutating surface. The returned function
// unsubscribes.
func (e *Engine) OnChange(fn func(PlaybackState)) func() {
	e.notifyMu.Lock()
	e.mu.Lock()
	id := uuid.New().String()
	e.subscribers[id] = fn
	cur := e.state
	e.mu.Unlock()

	fn(cur)
	e.notifyMu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// SetPlaying resumes or pauses playback on whichever device is active.
// It is idempotent: when the current verified status already equals the
// target, no command is issued. A resume before the autoplay guard has
// been activated is a no-op that forces the state to unknown.
func (e *Engine) SetPlaying(ctx context.Context, target bool) error {
	return e.executeCommand(ctx, func(ctx context.Context) error {
		e.mu.Lock()
		cur := e.state
		unlocked := e.autoplayUnlocked
		e.mu.Unlock()

		if (target && cur.Playing == PlayingYes) || (!target && cur.Playing == PlayingNo) {
			return nil
		}

		if target && !unlocked {
			zlog.Debug().Msg("player: resume requested before autoplay activation, forcing unknown")
			next := cur
			next.Playing = PlayingUnknown
			next.LastSource = SourceUnknown
			e.commit(next)
			return nil
		}

		e.setExpected(&expectedState{playing: &target})
		defer e.clearExpected()

		var err error
		if cur.LocalDeviceActive && e.local != nil {
			if target {
				err = e.local.Resume(ctx)
			} else {
				err = e.local.Pause(ctx)
			}
		} else {
			if target {
				err = e.remote.Resume(ctx, cur.ActiveDeviceID)
			} else {
				err = e.remote.Pause(ctx)
			}
		}
		if err != nil {
			if errors.Is(err, ErrNoActiveDevice) {
				e.commit(e.noSessionState())
				return nil
			}
			return errors.Wrap(err, "playback command failed")
		}

		e.reconcile(ctx)
		return nil
	})
}

// Toggle resolves the current status, treating unknown as paused, and
// delegates to SetPlaying.
func (e *Engine) Toggle(ctx context.Context) error {
	return e.SetPlaying(ctx, !e.State().Playing.Bool())
}

// SyncCurrentSong starts playback of a specific item at a specific offset
// on whichever device is active, used to correct drift.
func (e *Engine) SyncCurrentSong(ctx context.Context, uri string, positionMs int) error {
	if uri == "" {
		return errors.New("track uri is required")
	}
	return e.executeCommand(ctx, func(ctx context.Context) error {
		playing := true
		e.setExpected(&expectedState{playing: &playing})
		defer e.clearExpected()

		if err := e.remote.PlayURI(ctx, uri, positionMs); err != nil {
			if errors.Is(err, ErrNoActiveDevice) {
				e.commit(e.noSessionState())
				return nil
			}
			return errors.Wrap(err, "sync playback failed")
		}

		e.reconcile(ctx)
		return nil
	})
}

// Refresh queries the remote surface once, outside the regular cadence,
// and commits the result.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.pollOnce(ctx)
}

// Dispose tears down the engine: stops the poller, cancels timers, clears
// subscribers and detaches the visibility watch. Idempotent.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	e.cancel()
	if e.suppressCancel != nil {
		e.suppressCancel()
		e.suppressCancel = nil
	}
	vis := e.visCancel
	e.visCancel = nil
	e.subscribers = make(map[string]func(PlaybackState))
	e.mu.Unlock()

	if vis != nil {
		vis()
	}
}

// commit is the single writer for the public state. It notifies
// subscribers only when the new state differs structurally from the
// current one. Callbacks run outside the state lock.
func (e *Engine) commit(next PlaybackState) {
	e.commitWith(func(PlaybackState) PlaybackState { return next })
}

// commitWith atomically derives the next state from the current one and
// publishes it. The mutate function runs under the state lock, so a
// concurrent commit can never slip between the read and the write.
func (e *Engine) commitWith(mutate func(cur PlaybackState) PlaybackState) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.Lock()
	next := mutate(e.state)
	if e.disposed || e.state.Equal(next) {
		e.mu.Unlock()
		return
	}
	e.state = next
	subs := make([]func(PlaybackState), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	zlog.Debug().Msgf("player: state committed: device=%q local=%t playing=%s source=%s",
		next.ActiveDeviceID, next.LocalDeviceActive, next.Playing, next.LastSource)

	for _, fn := range subs {
		fn(next)
	}
}

func (e *Engine) setExpected(exp *expectedState) {
	e.mu.Lock()
	e.expected = exp
	e.mu.Unlock()
}

func (e *Engine) clearExpected() {
	e.setExpected(nil)
}

func (e *Engine) currentExpected() *expectedState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expected
}

// stateFromRemote maps a remote snapshot onto a committed state.
func (e *Engine) stateFromRemote(rs *RemoteState) PlaybackState {
	e.mu.Lock()
	localID := e.localDeviceID
	e.mu.Unlock()

	return PlaybackState{
		ActiveDeviceID:    rs.DeviceID,
		LocalDeviceActive: localID != "" && rs.DeviceID == localID,
		Playing:           playingFromBool(rs.Playing),
		LastSource:        SourceRemotePoll,
	}
}

// noSessionState maps "nothing is playing anywhere" onto the public state.
// The status stays unknown: an absent session is not a confirmed pause.
func (e *Engine) noSessionState() PlaybackState {
	return PlaybackState{Playing: PlayingUnknown, LastSource: SourceRemotePoll}
}
