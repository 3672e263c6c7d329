// Package main provides the playback control CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/crossdeck/internal/app/device"
	"github.com/osa030/crossdeck/internal/app/player"
	"github.com/osa030/crossdeck/internal/infra/config"
	"github.com/osa030/crossdeck/internal/infra/logger"
	"github.com/osa030/crossdeck/internal/infra/spotify"
)

var (
	app        = kingpin.New("playerctl", "crossdeck playback control CLI")
	configPath = app.Flag("config", "Path to config file").Default("config/crossdeck.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()

	devicesCmd = app.Command("devices", "List output devices")
	statusCmd  = app.Command("status", "Show the current playback state")
	playCmd    = app.Command("play", "Resume playback")
	pauseCmd   = app.Command("pause", "Pause playback")
	toggleCmd  = app.Command("toggle", "Toggle playback")

	transferCmd    = app.Command("transfer", "Transfer playback to a device")
	transferDevice = transferCmd.Arg("device-id", "Target device ID").Required().String()
	transferPlay   = transferCmd.Flag("play", "Start playing after the transfer").Bool()
	transferPause  = transferCmd.Flag("pause", "Leave the new device paused").Bool()

	syncCmd = app.Command("sync", "Start a specific track at an offset on the active device")
	syncURI = syncCmd.Arg("uri", "Track ID, URL, or spotify: URI").Required().String()
	syncPos = syncCmd.Arg("position-ms", "Playback offset in milliseconds").Default("0").Int()

	watchCmd = app.Command("watch", "Print state changes until interrupted")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := "info"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{Level: level, Output: "stderr"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg, command); err != nil {
		zlog.Error().Msgf("Command failed: %v", err)
		os.Exit(1)
	}
}

// run wires the collaborators and executes the selected command. A
// separate function ensures defers run before the process exits.
func run(cfg *config.Config, command string) error {
	ctx := context.Background()

	client, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
	})
	if err != nil {
		return err
	}

	if command == devicesCmd.FullCommand() {
		return listDevices(ctx, client)
	}

	local, err := device.NewFromConfig(cfg.Device)
	if err != nil {
		return err
	}

	engine := player.New(engineConfig(cfg.Player), client, local, nil)
	defer engine.Dispose()

	// The operator running a command is the user gesture.
	if err := engine.ActivateAutoplayGuard(ctx); err != nil {
		return err
	}

	switch command {
	case statusCmd.FullCommand():
		if err := engine.Refresh(ctx); err != nil {
			return err
		}
		printState(engine.State())
		return nil

	case playCmd.FullCommand():
		if err := engine.Refresh(ctx); err != nil {
			return err
		}
		if err := engine.SetPlaying(ctx, true); err != nil {
			return err
		}
		printState(engine.State())
		return nil

	case pauseCmd.FullCommand():
		if err := engine.Refresh(ctx); err != nil {
			return err
		}
		if err := engine.SetPlaying(ctx, false); err != nil {
			return err
		}
		printState(engine.State())
		return nil

	case toggleCmd.FullCommand():
		if err := engine.Refresh(ctx); err != nil {
			return err
		}
		if err := engine.Toggle(ctx); err != nil {
			return err
		}
		printState(engine.State())
		return nil

	case transferCmd.FullCommand():
		desired, err := transferDesired(*transferPlay, *transferPause)
		if err != nil {
			return err
		}
		if err := engine.TransferTo(ctx, *transferDevice, desired); err != nil {
			return err
		}
		printState(engine.State())
		return nil

	case syncCmd.FullCommand():
		if err := engine.SyncCurrentSong(ctx, *syncURI, *syncPos); err != nil {
			return err
		}
		printState(engine.State())
		return nil

	case watchCmd.FullCommand():
		return watch(engine)
	}

	return nil
}

// transferDesired maps the --play/--pause flags onto the optional desired
// playback status. With neither flag the status is left up to the remote
// surface; a bare flag value cannot express that, since kingpin's Bool
// defaults to false rather than absent.
func transferDesired(play, pause bool) (*bool, error) {
	if play && pause {
		return nil, errors.New("--play and --pause are mutually exclusive")
	}
	switch {
	case play:
		v := true
		return &v, nil
	case pause:
		v := false
		return &v, nil
	}
	return nil, nil
}

func engineConfig(pc config.PlayerConfig) player.Config {
	return player.Config{
		VisiblePollInterval:  time.Duration(pc.VisiblePollMs) * time.Millisecond,
		HiddenPollInterval:   time.Duration(pc.HiddenPollMs) * time.Millisecond,
		ReconcileSettleDelay: time.Duration(pc.ReconcileSettleMs) * time.Millisecond,
		ReconcileJitterMin:   time.Duration(pc.ReconcileJitterMinMs) * time.Millisecond,
		ReconcileJitterMax:   time.Duration(pc.ReconcileJitterMaxMs) * time.Millisecond,
		TransferPollInterval: time.Duration(pc.TransferPollMs) * time.Millisecond,
		TransferPollAttempts: pc.TransferPollAttempts,
		SuppressionGrace:     time.Duration(pc.SuppressionGraceMs) * time.Millisecond,
	}
}

func listDevices(ctx context.Context, client *spotify.Client) error {
	devices, err := client.Devices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No devices found")
		return nil
	}
	for _, d := range devices {
		marker := " "
		if d.Active {
			marker = "*"
		}
		fmt.Printf("%s %-40s %-12s %s\n", marker, d.ID, d.Type, d.Name)
	}
	return nil
}

func watch(engine *player.Engine) error {
	unsubscribe := engine.OnChange(func(s player.PlaybackState) {
		printState(s)
	})
	defer unsubscribe()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

func printState(s player.PlaybackState) {
	deviceID := s.ActiveDeviceID
	if deviceID == "" {
		deviceID = "(none)"
	}
	fmt.Printf("device=%s local=%t playing=%s source=%s\n",
		deviceID, s.LocalDeviceActive, s.Playing, s.LastSource)
}
