package player

import (
	"context"
	"sync"
	"time"
)

// remoteCall records one call against the fake remote surface.
type remoteCall struct {
	op       string
	deviceID string
	play     bool
	uri      string
	position int
}

// fakeRemote is a scripted remote control surface. With applyCommands set
// it behaves like a well-behaved remote: commands mutate the reported
// state, so reconciliation and transfer waits succeed naturally.
type fakeRemote struct {
	mu    sync.Mutex
	state *RemoteState
	// stateQueue, when non-empty, overrides state one response at a time.
	stateQueue []*RemoteState
	stateErr   error
	calls      []remoteCall

	applyCommands bool
	transferDelay time.Duration

	resumeErr error
	pauseErr  error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{stateErr: ErrNoActiveDevice}
}

func (r *fakeRemote) setState(rs *RemoteState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = rs
	r.stateErr = nil
}

func (r *fakeRemote) record(c remoteCall) {
	r.calls = append(r.calls, c)
}

func (r *fakeRemote) countCalls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (r *fakeRemote) callOps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.op
	}
	return ops
}

func (r *fakeRemote) lastCall(op string) (remoteCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].op == op {
			return r.calls[i], true
		}
	}
	return remoteCall{}, false
}

func (r *fakeRemote) State(ctx context.Context) (*RemoteState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, remoteCall{op: "state"})
	if len(r.stateQueue) > 0 {
		rs := r.stateQueue[0]
		r.stateQueue = r.stateQueue[1:]
		if rs == nil {
			return nil, ErrNoActiveDevice
		}
		cp := *rs
		return &cp, nil
	}
	if r.stateErr != nil {
		return nil, r.stateErr
	}
	cp := *r.state
	return &cp, nil
}

func (r *fakeRemote) Resume(ctx context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(remoteCall{op: "resume", deviceID: deviceID})
	if r.resumeErr != nil {
		return r.resumeErr
	}
	if r.applyCommands && r.state != nil {
		r.state.Playing = true
	}
	return nil
}

func (r *fakeRemote) Pause(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := remoteCall{op: "pause"}
	if r.state != nil {
		// Remember which device the pause actually landed on.
		c.deviceID = r.state.DeviceID
	}
	r.record(c)
	if r.pauseErr != nil {
		return r.pauseErr
	}
	if r.applyCommands && r.state != nil {
		r.state.Playing = false
	}
	return nil
}

func (r *fakeRemote) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	r.mu.Lock()
	delay := r.transferDelay
	r.record(remoteCall{op: "transfer", deviceID: deviceID, play: play})
	r.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyCommands {
		r.state = &RemoteState{DeviceID: deviceID, Playing: play}
		r.stateErr = nil
	}
	return nil
}

func (r *fakeRemote) PlayURI(ctx context.Context, uri string, positionMs int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(remoteCall{op: "play_uri", uri: uri, position: positionMs})
	if r.applyCommands {
		if r.state == nil {
			r.state = &RemoteState{}
		}
		r.state.Playing = true
		r.state.TrackURI = uri
		r.state.ProgressMs = positionMs
		r.stateErr = nil
	}
	return nil
}

func (r *fakeRemote) Devices(ctx context.Context) ([]RemoteDevice, error) {
	return nil, nil
}

// fakeLocal is a scripted embedded device.
type fakeLocal struct {
	mu       sync.Mutex
	handlers LocalHandlers

	resumes     int
	pauses      int
	activations int

	activateErr error
	onResume    func()
	onPause     func()
}

func (d *fakeLocal) Subscribe(h LocalHandlers) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = h
}

func (d *fakeLocal) Resume(ctx context.Context) error {
	d.mu.Lock()
	d.resumes++
	hook := d.onResume
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (d *fakeLocal) Pause(ctx context.Context) error {
	d.mu.Lock()
	d.pauses++
	hook := d.onPause
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (d *fakeLocal) Activate(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activations++
	return d.activateErr
}

func (d *fakeLocal) resumeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resumes
}

func (d *fakeLocal) pauseCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pauses
}

func (d *fakeLocal) emitReady(deviceID string) {
	d.mu.Lock()
	h := d.handlers
	d.mu.Unlock()
	if h.Ready != nil {
		h.Ready(deviceID)
	}
}

func (d *fakeLocal) emitNotReady(deviceID string) {
	d.mu.Lock()
	h := d.handlers
	d.mu.Unlock()
	if h.NotReady != nil {
		h.NotReady(deviceID)
	}
}

func (d *fakeLocal) emitStateChanged(playing bool) {
	d.mu.Lock()
	h := d.handlers
	d.mu.Unlock()
	if h.StateChanged != nil {
		h.StateChanged(LocalState{Playing: playing})
	}
}

// fakeVisibility is a switchable page-visibility source.
type fakeVisibility struct {
	mu      sync.Mutex
	visible bool
	fn      func(bool)
}

func (v *fakeVisibility) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

func (v *fakeVisibility) OnVisibilityChange(fn func(bool)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fn = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.fn = nil
	}
}

func (v *fakeVisibility) setVisible(visible bool) {
	v.mu.Lock()
	v.visible = visible
	fn := v.fn
	v.mu.Unlock()
	if fn != nil {
		fn(visible)
	}
}

// testConfig keeps every delay tiny and, by default, parks the poller so
// tests drive the engine deterministically. Poller tests override the
// intervals.
func testConfig() Config {
	return Config{
		VisiblePollInterval:  time.Hour,
		HiddenPollInterval:   time.Hour,
		ReconcileSettleDelay: time.Millisecond,
		ReconcileJitterMin:   time.Millisecond,
		ReconcileJitterMax:   2 * time.Millisecond,
		TransferPollInterval: 2 * time.Millisecond,
		TransferPollAttempts: 10,
		SuppressionGrace:     20 * time.Millisecond,
	}
}
