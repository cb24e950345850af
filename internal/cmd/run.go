package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Digital-Shane/vlc-presence/internal/config"
	"github.com/Digital-Shane/vlc-presence/internal/core"
	"github.com/Digital-Shane/vlc-presence/internal/log"
	"github.com/Digital-Shane/vlc-presence/internal/player"
	"github.com/Digital-Shane/vlc-presence/internal/presence"
	"github.com/Digital-Shane/vlc-presence/internal/provider/omdb"
	"github.com/Digital-Shane/vlc-presence/internal/provider/tmdb"
	"github.com/Digital-Shane/vlc-presence/internal/update"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const lockName = "vlc-presence.lock"

// ErrAlreadyRunning is returned when another bridge holds the instance lock
var ErrAlreadyRunning = errors.New("another vlc-presence instance is already running")

// run is the root command: self update, then the polling loop
func run(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := log.New(log.Options{
		Enabled:       cfg.EnableLogging,
		Level:         cfg.LogLevel,
		RetentionDays: cfg.LogRetentionDays,
		NoColor:       !isatty.IsTerminal(os.Stderr.Fd()),
	})
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if shouldUpdate(cfg, opts) {
		outcome, err := runUpdate(ctx, cfg, logger.Component("update"))
		if err != nil {
			return fmt.Errorf("self update failed: %w", err)
		}
		if outcome.ShouldExit() {
			logger.Info().Str("outcome", outcome.String()).Msg("Handing over to the other executable")
			return nil
		}
	} else {
		logger.Debug().Str("version", config.Version).Bool("skip_flag", opts.skipUpdate).Msg("Update check skipped")
	}

	lock, err := acquireLock()
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release instance lock")
		}
	}()

	return serve(ctx, cfg, logger)
}

// loadConfig layers the config file, the env file and the flags
func loadConfig(cmd *cobra.Command, opts *runOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(opts.envFile); err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg, opts)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with flags given on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *runOptions) {
	flags := cmd.Flags()
	if flags.Changed("vlc") && opts.vlcAddress != "" {
		cfg.VLCAddress = opts.vlcAddress
	}
	if flags.Changed("interval") && opts.interval > 0 {
		seconds := int(opts.interval.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		cfg.PollIntervalSeconds = seconds
	}
	if flags.Changed("log-level") && opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
}

// shouldUpdate reports whether the self update stage runs. Unreleased builds
// have no version to compare against, and a version restarted after a
// declined update must not ask again.
func shouldUpdate(cfg *config.Config, opts *runOptions) bool {
	return !opts.skipUpdate && cfg.CheckForUpdates && config.IsRelease() && !update.Declined()
}

func runUpdate(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (update.Outcome, error) {
	dir, err := os.Getwd()
	if err != nil {
		return update.StateCheckingVersion, fmt.Errorf("failed to get working directory: %w", err)
	}

	source := update.NewGitHubSource(cfg.ReleaseURL, config.Version)
	source.ShowProgress = isatty.IsTerminal(os.Stderr.Fd())

	machine := &update.Machine{
		Current:  config.Version,
		Source:   source,
		Launcher: update.OSLauncher{},
		Prompter: update.NewPrompter(os.Stdin, os.Stderr),
		Paths:    update.DefaultPaths(dir, cfg.ExecutableName),
		Logger:   logger,
	}
	return machine.Run(ctx)
}

// acquireLock takes the per user instance lock without blocking
func acquireLock() (*flock.Flock, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}

// serve connects to the collaborators and polls until ctx is done
func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	resolver, err := tmdb.New(cfg.TMDBAPIKey, cfg.TMDBLanguage, logger.Logger)
	if err != nil {
		return err
	}

	discord := presence.NewClient(cfg.DiscordClientID, logger.Logger)
	if err := discord.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to Discord: %w", err)
	}
	defer func() {
		if err := discord.ClearActivity(); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear presence")
		}
		discord.Close()
	}()
	logger.Info().Msg("Connected to Discord")

	vlc, err := player.Dial(ctx, cfg.VLCAddress, player.DefaultTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to VLC at %s: %w", cfg.VLCAddress, err)
	}
	defer vlc.Close()
	logger.Info().Str("address", cfg.VLCAddress).Msg("Connected to VLC")

	bridge := &core.Bridge{
		Player:    player.NewSession(vlc),
		Resolver:  resolver,
		Projector: presence.NewProjector(cfg.PlaceholderImage),
		Presence:  discord,
		Interval:  cfg.PollInterval(),
		Logger:    logger.Component("bridge"),
	}

	if cfg.OMDBEnabled() {
		linker, err := omdb.New(cfg.OMDBAPIKey, nil, logger.Logger)
		if err != nil {
			return err
		}
		bridge.Linker = linker
	}

	err = bridge.Run(ctx)

	summary := bridge.Summary()
	logger.Info().
		Int("polls", summary.Ticks).
		Int("pushed", summary.Pushed).
		Int("failures", summary.Failures).
		Msg("Shutting down")
	return err
}
