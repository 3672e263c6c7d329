// Package spotify adapts the Spotify Connect Web API to the player
// engine's remote controller contract.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/crossdeck/internal/app/player"
)

// Client is a Spotify Connect API client. It implements
// player.RemoteController.
type Client struct {
	client     *spotify.Client
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// New creates a new Spotify Connect client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	// Create authenticator with playback scopes
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
		),
	)

	// Create token from refresh token
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// Get HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, token)

	return &Client{
		client:     spotify.New(httpClient),
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// State returns the playback state of whichever device is currently
// active. Returns player.ErrNoActiveDevice when no session is active.
func (c *Client) State(ctx context.Context) (*player.RemoteState, error) {
	var ps *spotify.PlayerState
	err := c.retry(func() error {
		p, err := c.client.PlayerState(ctx)
		if err != nil {
			return err
		}
		ps = p
		return nil
	})
	if err != nil {
		if isNoActiveDevice(err) {
			return nil, player.ErrNoActiveDevice
		}
		return nil, errors.Wrap(err, "failed to get player state")
	}
	if ps == nil || ps.Device.ID == "" {
		return nil, player.ErrNoActiveDevice
	}

	rs := &player.RemoteState{
		DeviceID:   string(ps.Device.ID),
		DeviceName: ps.Device.Name,
		Playing:    ps.Playing,
		ProgressMs: int(ps.Progress),
	}
	if ps.Item != nil {
		rs.TrackURI = string(ps.Item.URI)
	}
	return rs, nil
}

// Resume resumes playback, on the given device when deviceID is set,
// otherwise on whichever device is active.
func (c *Client) Resume(ctx context.Context, deviceID string) error {
	err := c.retry(func() error {
		if deviceID == "" {
			return c.client.Play(ctx)
		}
		id := spotify.ID(deviceID)
		return c.client.PlayOpt(ctx, &spotify.PlayOptions{DeviceID: &id})
	})
	if err != nil {
		if isNoActiveDevice(err) {
			return player.ErrNoActiveDevice
		}
		return errors.Wrap(err, "failed to resume playback")
	}
	return nil
}

// Pause pauses playback on the active device.
func (c *Client) Pause(ctx context.Context) error {
	err := c.retry(func() error {
		return c.client.Pause(ctx)
	})
	if err != nil {
		if isNoActiveDevice(err) {
			return player.ErrNoActiveDevice
		}
		return errors.Wrap(err, "failed to pause playback")
	}
	return nil
}

// TransferPlayback moves the playback session to the given device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	err := c.retry(func() error {
		return c.client.TransferPlayback(ctx, spotify.ID(deviceID), play)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to transfer playback to %s", deviceID)
	}
	return nil
}

// PlayURI starts playback of a specific track at a specific offset on the
// active device. The uri may be a bare track ID, an open.spotify.com URL,
// or a spotify: URI.
func (c *Client) PlayURI(ctx context.Context, uri string, positionMs int) error {
	trackURI := spotify.URI(normalizeTrackURI(uri))
	err := c.retry(func() error {
		return c.client.PlayOpt(ctx, &spotify.PlayOptions{
			URIs:       []spotify.URI{trackURI},
			PositionMs: spotify.Numeric(positionMs),
		})
	})
	if err != nil {
		if isNoActiveDevice(err) {
			return player.ErrNoActiveDevice
		}
		return errors.Wrapf(err, "failed to start playback of %s", uri)
	}
	return nil
}

// Devices lists the output devices known to the remote surface.
func (c *Client) Devices(ctx context.Context) ([]player.RemoteDevice, error) {
	var devices []spotify.PlayerDevice
	err := c.retry(func() error {
		d, err := c.client.PlayerDevices(ctx)
		if err != nil {
			return err
		}
		devices = d
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}

	result := make([]player.RemoteDevice, 0, len(devices))
	for _, d := range devices {
		result = append(result, player.RemoteDevice{
			ID:     string(d.ID),
			Name:   d.Name,
			Type:   d.Type,
			Active: d.Active,
		})
	}
	return result, nil
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// isNoActiveDevice checks whether an error means the 204/404-class
// "no active playback session" response rather than a genuine failure.
// A 204 from the player endpoint yields an empty body, which surfaces as
// an EOF from the JSON decoder.
func isNoActiveDevice(err error) bool {
	if err == nil {
		return false
	}
	var se spotify.Error
	if errors.As(err, &se) {
		if se.Status == 404 || se.Status == 204 {
			return true
		}
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "eof") ||
		strings.Contains(s, "no active device") ||
		strings.Contains(s, "player command failed: no active device found")
}

// normalizeTrackURI converts a track ID, URL, or URI to a spotify: URI.
func normalizeTrackURI(input string) string {
	return "spotify:track:" + extractTrackID(input)
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:track:TRACK_ID
	if strings.HasPrefix(input, "spotify:track:") {
		return strings.TrimPrefix(input, "spotify:track:")
	}

	// Handle URL format: https://open.spotify.com/track/TRACK_ID or https://open.spotify.com/intl-XX/track/TRACK_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		if len(parts) >= 2 {
			// Remove query parameters and trailing slashes
			id := strings.Split(parts[len(parts)-1], "?")[0]
			id = strings.TrimRight(id, "/")
			return id
		}
	}

	// Assume it's already a track ID
	return input
}
