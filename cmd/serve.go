package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ytshots/internal/mcpserver"
)

var (
	flagTransport string
	flagAddr      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve youtube_screenshot_tool over MCP",
	Long: `Run an MCP server exposing youtube_screenshot_tool. The tool takes
youtube_url, timestamps and an optional output_dir, and returns a JSON array
of the saved screenshot paths.`,
	Args: cobra.NoArgs,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagTransport, "transport", "", "Transport: stdio, sse or http (default from config: stdio)")
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address for sse/http (default from config: 0.0.0.0:8050)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	if flagTransport != "" {
		cfg.ServeTransport = flagTransport
	}
	if flagAddr != "" {
		cfg.ServeAddr = flagAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cmd.SilenceUsage = true

	var recorder mcpserver.Recorder
	if cfg.History {
		store, err := openHistory()
		if err != nil {
			logger.Debug("history disabled", zap.Error(err))
		} else {
			defer store.Close()
			recorder = store
		}
	}

	h := mcpserver.NewHandler(newService(), recorder, cfg.ToolOutputDir, logger.Named("mcp"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcpserver.Serve(ctx, mcpserver.New(h, Version), strings.ToLower(cfg.ServeTransport), cfg.ServeAddr, logger)
}
