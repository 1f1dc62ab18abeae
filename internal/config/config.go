package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Output formats accepted for the main report.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Defaults for an unconfigured run.
const (
	DefaultPlaylistDir  = "playlists"
	DefaultTimeout      = 10 * time.Second
	DefaultDelay        = 100 * time.Millisecond
	DefaultExcludeChars = `'"<>,)]`
	DefaultMaxRedirects = 30
	DefaultBadgeLabel   = "channels"
	DefaultServeAddr    = ":8080"
)

// Config holds the application's configuration values.
type Config struct {
	PlaylistDir   string        `yaml:"playlist_dir"`
	Output        string        `yaml:"output"`
	Format        string        `yaml:"format"`
	TextOutput    string        `yaml:"text_output"`
	BadgeOutput   string        `yaml:"badge_output"`
	MetricsOutput string        `yaml:"metrics_output"`
	HistoryDB     string        `yaml:"history_db"`
	Timeout       time.Duration `yaml:"timeout"`
	Delay         time.Duration `yaml:"delay"`
	ExcludeChars  string        `yaml:"exclude_chars"`
	MaxRedirects  int           `yaml:"max_redirects"`
	InsecureTLS   bool          `yaml:"insecure_tls"`
	UserAgent     string        `yaml:"user_agent"`
	Lenient       bool          `yaml:"lenient"`
	Badge         BadgeConfig   `yaml:"badge"`
	Log           LogConfig     `yaml:"log"`
	Serve         ServeConfig   `yaml:"serve"`
}

// BadgeConfig controls the badge label and the color of each tier.
type BadgeConfig struct {
	Label         string `yaml:"label"`
	SuccessColor  string `yaml:"success_color"`
	WarningColor  string `yaml:"warning_color"`
	CriticalColor string `yaml:"critical_color"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServeConfig holds settings for the read-only history API.
type ServeConfig struct {
	Addr          string        `yaml:"addr"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		PlaylistDir:  DefaultPlaylistDir,
		Format:       FormatJSON,
		Timeout:      DefaultTimeout,
		Delay:        DefaultDelay,
		ExcludeChars: DefaultExcludeChars,
		MaxRedirects: DefaultMaxRedirects,
		Badge: BadgeConfig{
			Label:         DefaultBadgeLabel,
			SuccessColor:  "success",
			WarningColor:  "yellow",
			CriticalColor: "critical",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Serve: ServeConfig{
			Addr:          DefaultServeAddr,
			ShutdownGrace: 10 * time.Second,
		},
	}
}

// LoadFile merges the YAML file at path over cfg. Keys absent from the file
// keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with PLAYLISTCHECK_* environment variables.
func ApplyEnv(cfg *Config) {
	cfg.PlaylistDir = getEnv("PLAYLISTCHECK_DIR", cfg.PlaylistDir)
	cfg.Output = getEnv("PLAYLISTCHECK_OUTPUT", cfg.Output)
	cfg.Format = getEnv("PLAYLISTCHECK_FORMAT", cfg.Format)
	cfg.TextOutput = getEnv("PLAYLISTCHECK_TEXT_OUTPUT", cfg.TextOutput)
	cfg.BadgeOutput = getEnv("PLAYLISTCHECK_BADGE_OUTPUT", cfg.BadgeOutput)
	cfg.MetricsOutput = getEnv("PLAYLISTCHECK_METRICS_OUTPUT", cfg.MetricsOutput)
	cfg.HistoryDB = getEnv("PLAYLISTCHECK_HISTORY_DB", cfg.HistoryDB)
	cfg.Timeout = getEnvDuration("PLAYLISTCHECK_TIMEOUT", cfg.Timeout)
	cfg.Delay = getEnvDuration("PLAYLISTCHECK_DELAY", cfg.Delay)
	cfg.ExcludeChars = getEnv("PLAYLISTCHECK_EXCLUDE_CHARS", cfg.ExcludeChars)
	cfg.MaxRedirects = getEnvInt("PLAYLISTCHECK_MAX_REDIRECTS", cfg.MaxRedirects)
	cfg.InsecureTLS = getEnvBool("PLAYLISTCHECK_INSECURE_TLS", cfg.InsecureTLS)
	cfg.UserAgent = getEnv("PLAYLISTCHECK_USER_AGENT", cfg.UserAgent)
	cfg.Lenient = getEnvBool("PLAYLISTCHECK_LENIENT", cfg.Lenient)
	cfg.Log.Level = getEnv("PLAYLISTCHECK_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("PLAYLISTCHECK_LOG_FORMAT", cfg.Log.Format)
	cfg.Serve.Addr = getEnv("PLAYLISTCHECK_SERVE_ADDR", cfg.Serve.Addr)
}

// Validate checks the settings needed by a scan run.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.PlaylistDir) == "" {
		errs = append(errs, errors.New("playlist directory must not be empty"))
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	switch c.Format {
	case FormatJSON, FormatText:
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q (want %s or %s)", c.Format, FormatJSON, FormatText))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must not be negative, got %s", c.Delay))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("max redirects must not be negative, got %d", c.MaxRedirects))
	}
	if c.Badge.SuccessColor == "" || c.Badge.WarningColor == "" || c.Badge.CriticalColor == "" {
		errs = append(errs, errors.New("badge colors must not be empty"))
	}
	return errors.Join(errs...)
}

// Helper function to get an environment variable or return a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get an environment variable as an integer.
func getEnvInt(key string, fallback int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

// Helper function to get an environment variable as a boolean.
func getEnvBool(key string, fallback bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

// Helper function to get an environment variable as a time.Duration.
// Bare numbers are taken as seconds, matching the --timeout flag.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
		if secs, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return fallback
}
