// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ytshots/internal/capture"
	"ytshots/internal/config"
	"ytshots/internal/history"
	"ytshots/internal/logging"
	"ytshots/internal/screenshot"
	"ytshots/internal/stream"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagURL            string
	flagTimestamps     []string
	flagTimestampsFile string
	flagOutputDirBase  string
	flagJSON           bool
	flagDebug          bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

// logger is built from cfg once the configuration is loaded.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "ytshots --url URL (--timestamps TS [TS...] | --timestamps_file FILE)",
	Short: "Take screenshots from a YouTube video at specified timestamps",
	Long: `ytshots resolves a direct stream URL for a video with yt-dlp and grabs one
frame per timestamp with ffmpeg. Timestamps are seconds (10, 120.5) or
HH:MM:SS strings (0:45, 01:02:03), exactly as ffmpeg's -ss accepts them.

Screenshots are written to <output_dir_base>/video_<id>/.`,
	Args:               cobra.ArbitraryArgs,
	PersistentPreRunE:  loadConfig,
	PersistentPostRunE: syncLogger,
	RunE:               captureRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&flagURL, "url", "u", "", "The URL of the YouTube video (required)")
	rootCmd.Flags().StringSliceVarP(&flagTimestamps, "timestamps", "t", nil,
		"Timestamps, e.g. -t 10 0:45 120.5 '01:02:03' (comma-separated or repeated also work)")
	rootCmd.Flags().StringVarP(&flagTimestampsFile, "timestamps_file", "f", "",
		"File with one timestamp per line (seconds or HH:MM:SS)")
	rootCmd.Flags().StringVarP(&flagOutputDirBase, "output_dir_base", "o", "",
		"Base directory; a subfolder for the video is created here (default: cli_screenshots)")
	rootCmd.Flags().BoolVarP(&flagJSON, "json", "j", false, "Print saved paths as a JSON array")

	_ = rootCmd.MarkFlagRequired("url")
	rootCmd.MarkFlagsMutuallyExclusive("timestamps", "timestamps_file")
	rootCmd.MarkFlagsOneRequired("timestamps", "timestamps_file")

	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagOutputDirBase != "" {
		cfg.OutputDirBase = flagOutputDirBase
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err = logging.New(cfg.Level())
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	return nil
}

func syncLogger(cmd *cobra.Command, args []string) error {
	// Syncing stderr fails with EINVAL on some platforms; nothing to report.
	_ = logger.Sync()
	return nil
}

// newService wires the yt-dlp resolver and ffmpeg capturer from cfg.
func newService() *screenshot.Service {
	resolver := stream.NewYtDlp(cfg.YtDlpPath, cfg.Timeout(), logger.Named("stream"))
	capturer := capture.NewFFmpeg(cfg.FFmpegPath, cfg.JPEGQuality, cfg.Timeout())
	return screenshot.NewService(resolver, capturer, cfg.FilePrefix, logger.Named("screenshot"))
}

// openHistory opens the capture history database.
func openHistory() (*history.Store, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}
