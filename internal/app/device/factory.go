// Package device provides local playback device drivers.
package device

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/crossdeck/internal/app/player"
	"github.com/osa030/crossdeck/internal/infra/config"
)

// NewFromConfig creates a local device driver from configuration.
// A nil device (driver "none") means playback is controlled purely through
// the remote surface.
func NewFromConfig(cfg config.DeviceConfig) (player.LocalDevice, error) {
	zlog.Debug().Msgf("creating local device driver: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case "none", "":
		return nil, nil

	case "fixed":
		return NewFixedDevice(cfg.Settings)

	default:
		return nil, errors.Newf("unsupported device driver type: %s", cfg.Type)
	}
}
