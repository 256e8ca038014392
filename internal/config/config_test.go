package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.YtDlpPath != "yt-dlp" {
		t.Errorf("default ytdlp_path = %q, want yt-dlp", cfg.YtDlpPath)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("default timeout = %d, want 60", cfg.TimeoutSeconds)
	}
	if cfg.OutputDirBase != "cli_screenshots" {
		t.Errorf("default output_dir_base = %q, want cli_screenshots", cfg.OutputDirBase)
	}
	if cfg.ToolOutputDir != "screenshots" {
		t.Errorf("default tool_output_dir = %q, want screenshots", cfg.ToolOutputDir)
	}
	if cfg.FilePrefix != "video" {
		t.Errorf("default file_prefix = %q, want video", cfg.FilePrefix)
	}
	if !cfg.History {
		t.Error("default history should be true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty ytdlp", func(c *Config) { c.YtDlpPath = "" }, true},
		{"empty ffmpeg", func(c *Config) { c.FFmpegPath = "" }, true},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }, true},
		{"quality too low", func(c *Config) { c.JPEGQuality = 0 }, true},
		{"quality too high", func(c *Config) { c.JPEGQuality = 32 }, true},
		{"empty prefix", func(c *Config) { c.FilePrefix = "" }, true},
		{"prefix with slash", func(c *Config) { c.FilePrefix = "a/b" }, true},
		{"prefix traversal", func(c *Config) { c.FilePrefix = "..x" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad transport", func(c *Config) { c.ServeTransport = "carrier-pigeon" }, true},
		{"valid sse", func(c *Config) { c.ServeTransport = "sse" }, false},
		{"valid http", func(c *Config) { c.ServeTransport = "http" }, false},
		{"valid quality 31", func(c *Config) { c.JPEGQuality = 31 }, false},
		{"uppercase level", func(c *Config) { c.LogLevel = "WARN" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "ytshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFromTOML(t *testing.T) {
	writeConfig(t, `
ytdlp_path = "/opt/bin/yt-dlp"
timeout_seconds = 15
jpeg_quality = 5
history = false
serve_transport = "sse"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.YtDlpPath != "/opt/bin/yt-dlp" {
		t.Errorf("ytdlp_path = %q, want /opt/bin/yt-dlp", cfg.YtDlpPath)
	}
	if cfg.TimeoutSeconds != 15 {
		t.Errorf("timeout_seconds = %d, want 15", cfg.TimeoutSeconds)
	}
	if cfg.JPEGQuality != 5 {
		t.Errorf("jpeg_quality = %d, want 5", cfg.JPEGQuality)
	}
	if cfg.History {
		t.Error("history should be false")
	}
	if cfg.ServeTransport != "sse" {
		t.Errorf("serve_transport = %q, want sse", cfg.ServeTransport)
	}
	// Untouched keys keep their defaults
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("ffmpeg_path = %q, want ffmpeg", cfg.FFmpegPath)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	writeConfig(t, `timeout_seconds = 15`)
	t.Setenv("YTSHOTS_TIMEOUT_SECONDS", "30")
	t.Setenv("YTSHOTS_FFMPEG_PATH", "/usr/local/bin/ffmpeg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("timeout_seconds = %d, want 30", cfg.TimeoutSeconds)
	}
	if cfg.FFmpegPath != "/usr/local/bin/ffmpeg" {
		t.Errorf("ffmpeg_path = %q, want /usr/local/bin/ffmpeg", cfg.FFmpegPath)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	writeConfig(t, `jpeg_quality = 99`)

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject out-of-range jpeg_quality")
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	writeConfig(t, `timeout_seconds = "sixty`)

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail on malformed TOML")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.YtDlpPath != "yt-dlp" {
		t.Errorf("missing file should return defaults, got ytdlp_path = %q", cfg.YtDlpPath)
	}
}

func TestTimeoutAndLevel(t *testing.T) {
	cfg := Default()
	if cfg.Timeout() != 60*time.Second {
		t.Errorf("Timeout() = %v, want 60s", cfg.Timeout())
	}
	if cfg.Level() != "info" {
		t.Errorf("Level() = %q, want info", cfg.Level())
	}
	cfg.Debug = true
	if cfg.Level() != "debug" {
		t.Errorf("Level() with debug = %q, want debug", cfg.Level())
	}
}

func TestHistoryPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmpDir)

	path, err := HistoryPath()
	if err != nil {
		t.Fatalf("HistoryPath() error: %v", err)
	}
	want := filepath.Join(tmpDir, "ytshots", "history.db")
	if path != want {
		t.Errorf("HistoryPath() = %q, want %q", path, want)
	}
}
