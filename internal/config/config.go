package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const appDir = ".vlc-presence"

var (
	ErrMissingTMDBKey  = errors.New("tmdb api key is not configured")
	ErrMissingClientID = errors.New("discord client id is not configured")
)

// Config holds every setting of the bridge
type Config struct {
	// TMDB
	TMDBAPIKey   string `json:"tmdb_api_key"`
	TMDBLanguage string `json:"tmdb_language"`

	// Discord
	DiscordClientID  string `json:"discord_client_id"`
	PlaceholderImage string `json:"placeholder_image"`

	// OMDb backfill for missing IMDb ids
	OMDBAPIKey       string `json:"omdb_api_key"`
	EnableOMDBLookup bool   `json:"enable_omdb_lookup"`

	// VLC remote control
	VLCAddress          string `json:"vlc_address"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`

	// Self update
	CheckForUpdates bool   `json:"check_for_updates"`
	ReleaseURL      string `json:"release_url"`
	ExecutableName  string `json:"executable_name"`

	// Logging
	EnableLogging    bool   `json:"enable_logging"`
	LogRetentionDays int    `json:"log_retention_days"`
	LogLevel         string `json:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TMDBLanguage:        "en-US",
		PlaceholderImage:    "vlc",
		EnableOMDBLookup:    false,
		VLCAddress:          "127.0.0.1:9090",
		PollIntervalSeconds: 10,
		CheckForUpdates:     true,
		ReleaseURL:          "https://api.github.com/repos/xenoncolt/vlc-discord-rpc/releases/latest",
		ExecutableName:      "vlc-presence",
		EnableLogging:       true,
		LogRetentionDays:    30,
		LogLevel:            "info",
	}
}

// Dir returns the per user application directory
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, appDir), nil
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from path, or from ConfigPath when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults replaces zero values that are never valid settings
func (cfg *Config) fillDefaults() {
	defaults := DefaultConfig()
	if cfg.TMDBLanguage == "" {
		cfg.TMDBLanguage = defaults.TMDBLanguage
	}
	if cfg.PlaceholderImage == "" {
		cfg.PlaceholderImage = defaults.PlaceholderImage
	}
	if cfg.VLCAddress == "" {
		cfg.VLCAddress = defaults.VLCAddress
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = defaults.PollIntervalSeconds
	}
	if cfg.ReleaseURL == "" {
		cfg.ReleaseURL = defaults.ReleaseURL
	}
	if cfg.ExecutableName == "" {
		cfg.ExecutableName = defaults.ExecutableName
	}
	if cfg.LogRetentionDays == 0 {
		cfg.LogRetentionDays = defaults.LogRetentionDays
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
}

// ApplyEnv layers a .env file, the process environment and the embedded
// build keys over cfg. Environment wins over the file, the file wins over
// embedded keys. A missing envFile is not an error.
func (cfg *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if v := firstEnv("TMDB_API_KEY", "API_KEY"); v != "" {
		cfg.TMDBAPIKey = v
	}
	if v := firstEnv("DISCORD_CLIENT_ID", "CLIENT_ID"); v != "" {
		cfg.DiscordClientID = v
	}
	if v := firstEnv("OMDB_API_KEY"); v != "" {
		cfg.OMDBAPIKey = v
	}

	if cfg.TMDBAPIKey == "" {
		cfg.TMDBAPIKey = EmbeddedTMDBKey
	}
	if cfg.DiscordClientID == "" {
		cfg.DiscordClientID = EmbeddedClientID
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// Validate reports settings the bridge cannot start without
func (cfg *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(cfg.TMDBAPIKey) == "" {
		errs = append(errs, ErrMissingTMDBKey)
	}
	if strings.TrimSpace(cfg.DiscordClientID) == "" {
		errs = append(errs, ErrMissingClientID)
	}
	return errors.Join(errs...)
}

// PollInterval returns the delay between polls
func (cfg *Config) PollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalSeconds) * time.Second
}

// OMDBEnabled reports whether the OMDb backfill should run
func (cfg *Config) OMDBEnabled() bool {
	return cfg.EnableOMDBLookup && strings.TrimSpace(cfg.OMDBAPIKey) != ""
}

// Save writes the configuration to path, or to ConfigPath when empty
func (cfg *Config) Save(path string) error {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Keys live in this file
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
