// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Player  PlayerConfig  `yaml:"player"`
	Device  DeviceConfig  `yaml:"device"`
	Spotify SpotifyConfig `yaml:"spotify"`
}

// LoggingConfig represents logger configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Output string `yaml:"output" default:"stdout"`
}

// PlayerConfig represents engine timing configuration. All values are in
// milliseconds.
type PlayerConfig struct {
	VisiblePollMs        int `yaml:"visible_poll_ms" default:"1500" validate:"gte=100"`
	HiddenPollMs         int `yaml:"hidden_poll_ms" default:"5000" validate:"gte=100"`
	ReconcileSettleMs    int `yaml:"reconcile_settle_ms" default:"200" validate:"gte=0"`
	ReconcileJitterMinMs int `yaml:"reconcile_jitter_min_ms" default:"100" validate:"gte=0"`
	ReconcileJitterMaxMs int `yaml:"reconcile_jitter_max_ms" default:"300" validate:"gte=0"`
	TransferPollMs       int `yaml:"transfer_poll_ms" default:"300" validate:"gte=10"`
	TransferPollAttempts int `yaml:"transfer_poll_attempts" default:"10" validate:"gte=1,lte=100"`
	SuppressionGraceMs   int `yaml:"suppression_grace_ms" default:"2000" validate:"gte=0"`
}

// DeviceConfig represents the local playback device driver configuration.
type DeviceConfig struct {
	Type     string         `yaml:"type" default:"none"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for credentials.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Player.ReconcileJitterMaxMs < c.Player.ReconcileJitterMinMs {
		return errors.Newf("reconcile_jitter_max_ms (%d) must be >= reconcile_jitter_min_ms (%d)",
			c.Player.ReconcileJitterMaxMs, c.Player.ReconcileJitterMinMs)
	}

	return nil
}
