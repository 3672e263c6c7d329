package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Logging: LoggingConfig{Level: "info", Output: "stdout"},
				Player: PlayerConfig{
					VisiblePollMs:        1500,
					HiddenPollMs:         5000,
					ReconcileSettleMs:    200,
					ReconcileJitterMinMs: 100,
					ReconcileJitterMaxMs: 300,
					TransferPollMs:       300,
					TransferPollAttempts: 10,
					SuppressionGraceMs:   2000,
				},
				Spotify: SpotifyConfig{
					ClientID:     "test-client-id",
					ClientSecret: "test-client-secret",
					RefreshToken: "test-refresh-token",
				},
			},
			wantErr: false,
		},
		{
			name: "missing spotify refresh token",
			config: Config{
				Logging: LoggingConfig{Level: "info", Output: "stdout"},
				Player: PlayerConfig{
					VisiblePollMs:        1500,
					HiddenPollMs:         5000,
					ReconcileJitterMinMs: 100,
					ReconcileJitterMaxMs: 300,
					TransferPollMs:       300,
					TransferPollAttempts: 10,
				},
				Spotify: SpotifyConfig{
					ClientID:     "test-client-id",
					ClientSecret: "test-client-secret",
				},
			},
			wantErr: true,
		},
		{
			name: "jitter max below jitter min",
			config: Config{
				Logging: LoggingConfig{Level: "info", Output: "stdout"},
				Player: PlayerConfig{
					VisiblePollMs:        1500,
					HiddenPollMs:         5000,
					ReconcileJitterMinMs: 300,
					ReconcileJitterMaxMs: 100,
					TransferPollMs:       300,
					TransferPollAttempts: 10,
				},
				Spotify: SpotifyConfig{
					ClientID:     "test-client-id",
					ClientSecret: "test-client-secret",
					RefreshToken: "test-refresh-token",
				},
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			config: Config{
				Logging: LoggingConfig{Level: "loud", Output: "stdout"},
				Player: PlayerConfig{
					VisiblePollMs:        1500,
					HiddenPollMs:         5000,
					ReconcileJitterMinMs: 100,
					ReconcileJitterMaxMs: 300,
					TransferPollMs:       300,
					TransferPollAttempts: 10,
				},
				Spotify: SpotifyConfig{
					ClientID:     "test-client-id",
					ClientSecret: "test-client-secret",
					RefreshToken: "test-refresh-token",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
spotify:
  client_id: "file-client-id"
  client_secret: "file-client-secret"
  refresh_token: "file-refresh-token"
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("SPOTIFY_REFRESH_TOKEN", "env-refresh-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-client-id", cfg.Spotify.ClientID)
	assert.Equal(t, "env-refresh-token", cfg.Spotify.RefreshToken)

	// Defaults applied
	assert.Equal(t, 1500, cfg.Player.VisiblePollMs)
	assert.Equal(t, 5000, cfg.Player.HiddenPollMs)
	assert.Equal(t, 10, cfg.Player.TransferPollAttempts)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "none", cfg.Device.Type)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
