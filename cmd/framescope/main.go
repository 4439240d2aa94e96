// Package main provides the CLI entry point for framescope.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/framescope/pkg/adapters/drawscaler"
	"github.com/user/framescope/pkg/adapters/imagingscaler"
	"github.com/user/framescope/pkg/adapters/logger"
	"github.com/user/framescope/pkg/adapters/osfilesystem"
	"github.com/user/framescope/pkg/adapters/smartdecoder"
	"github.com/user/framescope/pkg/config"
	"github.com/user/framescope/pkg/playback"
	"github.com/user/framescope/pkg/ports"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "framescope",
		Usage:   l10n.T("Frame-accurate media inspection and playback engine"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    l10n.T("YAML configuration file"),
				Category: l10n.T("Configuration"),
				EnvVars:  []string{"FRAMESCOPE_CONFIG"},
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
			&cli.StringFlag{
				Name:     "ffmpeg-path",
				Usage:    l10n.T("Path to the ffmpeg executable used for H.264"),
				Category: l10n.T("Decoding"),
				EnvVars:  []string{"FFMPEG_PATH"},
			},
			&cli.StringFlag{
				Name:     "scaler",
				Usage:    l10n.T("Frame scaler (draw, imaging)"),
				Category: l10n.T("Decoding"),
			},
			&cli.StringFlag{
				Name:     "scaler-kernel",
				Usage:    l10n.T("Resampling kernel of the selected scaler"),
				Category: l10n.T("Decoding"),
			},
		},
		Commands: []*cli.Command{
			probeCommand(),
			frameCommand(),
			waveformCommand(),
			serveCommand(),
			versionCommand(),
		},
	}
}

// loadConfig reads the configuration file, if any, and applies global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(osfilesystem.New(), path); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("quiet") {
		cfg.Quiet = c.Bool("quiet")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("scaler") {
		cfg.Scaler = c.String("scaler")
		if !c.IsSet("scaler-kernel") {
			cfg.ScalerKernel = ""
		}
	}
	if c.IsSet("scaler-kernel") {
		cfg.ScalerKernel = c.String("scaler-kernel")
	}

	return cfg, cfg.Validate()
}

// newLogger writes to stderr so stdout stays free for command output.
func newLogger(cfg config.Config) ports.Logger {
	if cfg.Quiet {
		return logger.NewNoop()
	}
	return logger.NewStderr(ports.ParseLogLevel(cfg.LogLevel))
}

func newScaler(cfg config.Config) (ports.Scaler, error) {
	if cfg.Scaler == config.ScalerImaging {
		s, err := imagingscaler.New(cfg.ScalerKernel)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := drawscaler.New(cfg.ScalerKernel)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newDependencies wires the production adapters into a playback.Dependencies.
func newDependencies(cfg config.Config, log ports.Logger) (playback.Dependencies, error) {
	scaler, err := newScaler(cfg)
	if err != nil {
		return playback.Dependencies{}, err
	}
	return playback.Dependencies{
		Opener: smartdecoder.NewOpener(),
		Decoders: smartdecoder.New(smartdecoder.Options{
			FFmpegPath: cfg.FFmpegPath,
			Logger:     log,
		}),
		Scaler: scaler,
		Logger: log,
	}, nil
}

// setup is the shared prologue of every engine command.
func setup(c *cli.Context) (config.Config, ports.Logger, playback.Dependencies, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return cfg, nil, playback.Dependencies{}, err
	}
	log := newLogger(cfg)
	deps, err := newDependencies(cfg, log)
	return cfg, log, deps, err
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("framescope version %s", version))
			fmt.Println(l10n.F("H.264 (ffmpeg): %t", smartdecoder.IsH264Available(c.String("ffmpeg-path"))))
			fmt.Println(l10n.F("AV1 (libaom): %t", smartdecoder.IsAV1Available()))
			return nil
		},
	}
}
