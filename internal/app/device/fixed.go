package device

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/crossdeck/internal/app/player"
)

// FixedDeviceConfig configures the fixed driver.
type FixedDeviceConfig struct {
	DeviceID string `yaml:"device_id" mapstructure:"device_id" validate:"required"`
	Name     string `yaml:"name" mapstructure:"name" default:"crossdeck"`
}

// FixedDevice is a local device driver that announces a single,
// always-ready device under a configured ID. Useful for bench setups and
// for driving the engine from environments without an embedded SDK, where
// the "local" device is really a stable remote endpoint the operator owns.
type FixedDevice struct {
	mu       sync.Mutex
	config   *FixedDeviceConfig
	handlers player.LocalHandlers
	playing  bool
}

// NewFixedDevice creates a new FixedDevice from driver settings.
func NewFixedDevice(settings map[string]any) (*FixedDevice, error) {
	var config FixedDeviceConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &FixedDevice{config: &config}, nil
}

// DeviceID returns the configured device ID.
func (d *FixedDevice) DeviceID() string {
	return d.config.DeviceID
}

// Subscribe registers handlers and immediately re-announces readiness.
func (d *FixedDevice) Subscribe(h player.LocalHandlers) {
	d.mu.Lock()
	d.handlers = h
	d.mu.Unlock()

	if h.Ready != nil {
		h.Ready(d.config.DeviceID)
	}
}

// Resume marks the device playing and pushes the state change.
func (d *FixedDevice) Resume(ctx context.Context) error {
	d.setPlaying(true)
	return nil
}

// Pause marks the device paused and pushes the state change.
func (d *FixedDevice) Pause(ctx context.Context) error {
	d.setPlaying(false)
	return nil
}

// Activate is the gesture-activation hook. The fixed driver has no
// platform gate to unlock.
func (d *FixedDevice) Activate(ctx context.Context) error {
	return nil
}

func (d *FixedDevice) setPlaying(playing bool) {
	d.mu.Lock()
	d.playing = playing
	h := d.handlers
	d.mu.Unlock()

	if h.StateChanged != nil {
		h.StateChanged(player.LocalState{Playing: playing})
	}
}
