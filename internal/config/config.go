// Package config handles configuration loading and validation.
// Values are merged as defaults < TOML file < environment; CLI flags are
// applied on top by the cmd package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// envPrefix is prepended to every environment variable name.
const envPrefix = "YTSHOTS_"

// Config holds all application configuration.
type Config struct {
	YtDlpPath      string `toml:"ytdlp_path" env:"YTDLP_PATH"`
	FFmpegPath     string `toml:"ffmpeg_path" env:"FFMPEG_PATH"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	JPEGQuality    int    `toml:"jpeg_quality" env:"JPEG_QUALITY"`
	FilePrefix     string `toml:"file_prefix" env:"FILE_PREFIX"`
	OutputDirBase  string `toml:"output_dir_base" env:"OUTPUT_DIR_BASE"`
	ToolOutputDir  string `toml:"tool_output_dir" env:"TOOL_OUTPUT_DIR"`
	History        bool   `toml:"history" env:"HISTORY"`
	LogLevel       string `toml:"log_level" env:"LOG_LEVEL"`
	ServeTransport string `toml:"serve_transport" env:"SERVE_TRANSPORT"`
	ServeAddr      string `toml:"serve_addr" env:"SERVE_ADDR"`
	Debug          bool   `toml:"debug" env:"DEBUG"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		YtDlpPath:      "yt-dlp",
		FFmpegPath:     "ffmpeg",
		TimeoutSeconds: 60,
		JPEGQuality:    2,
		FilePrefix:     "video",
		OutputDirBase:  "cli_screenshots",
		ToolOutputDir:  "screenshots",
		History:        true,
		LogLevel:       "info",
		ServeTransport: "stdio",
		ServeAddr:      "0.0.0.0:8050",
		Debug:          false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ytshots"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ytshots"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, applies environment overrides and validates.
// If the config file doesn't exist, defaults (plus environment) are used.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.YtDlpPath == "" {
		return fmt.Errorf("ytdlp_path cannot be empty")
	}
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path cannot be empty")
	}

	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}

	// ffmpeg's mjpeg qscale range
	if c.JPEGQuality < 1 || c.JPEGQuality > 31 {
		return fmt.Errorf("jpeg_quality %d out of range (valid: 1-31)", c.JPEGQuality)
	}

	if c.FilePrefix == "" {
		return fmt.Errorf("file_prefix cannot be empty")
	}
	if strings.ContainsAny(c.FilePrefix, `/\`) || strings.Contains(c.FilePrefix, "..") {
		return fmt.Errorf("file_prefix contains path components: %q", c.FilePrefix)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("unsupported log_level %q (valid: debug, info, warn, error)", c.LogLevel)
	}

	validTransports := map[string]bool{
		"stdio": true, "sse": true, "http": true,
	}
	if !validTransports[strings.ToLower(c.ServeTransport)] {
		return fmt.Errorf("unsupported serve_transport %q (valid: stdio, sse, http)", c.ServeTransport)
	}

	return nil
}

// Timeout returns the per-process wall-clock ceiling.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Level returns the effective log level, honoring the debug switch.
func (c *Config) Level() string {
	if c.Debug {
		return "debug"
	}
	return strings.ToLower(c.LogLevel)
}

// HistoryPath returns the path to the capture history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "ytshots", "history.db"), nil
}
