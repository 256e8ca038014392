// Package mcpserver exposes the screenshot workflow as an MCP tool.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"ytshots/internal/media"
	"ytshots/internal/naming"
	"ytshots/internal/screenshot"
)

const (
	// ServerName is advertised to MCP clients.
	ServerName = "YouTube Screenshot Taker"

	// ToolName is the name of the single exposed tool.
	ToolName = "youtube_screenshot_tool"
)

// Taker runs a screenshot batch.
type Taker interface {
	Take(ctx context.Context, videoURL string, timestamps []string, outputDir string) ([]media.Screenshot, error)
}

// Recorder stores a finished batch. It may be nil.
type Recorder interface {
	Record(ctx context.Context, videoURL, stem string, shots []media.Screenshot) (string, error)
}

// Handler serves youtube_screenshot_tool calls.
type Handler struct {
	taker      Taker
	recorder   Recorder
	defaultDir string
	log        *zap.Logger
}

// NewHandler creates a Handler. defaultDir is used when a call omits output_dir.
func NewHandler(taker Taker, recorder Recorder, defaultDir string, log *zap.Logger) *Handler {
	return &Handler{taker: taker, recorder: recorder, defaultDir: defaultDir, log: log}
}

// Tool describes youtube_screenshot_tool.
func (h *Handler) Tool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Take screenshots from a YouTube video at specified timestamps. "+
			"Returns a JSON array of absolute file paths of the saved screenshots; "+
			"timestamps that could not be captured are left out."),
		mcp.WithString("youtube_url",
			mcp.Required(),
			mcp.Description("The URL of the YouTube video."),
		),
		mcp.WithArray("timestamps",
			mcp.Required(),
			mcp.Description("List of timestamps (seconds or HH:MM:SS format)."),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory to save screenshots."),
			mcp.DefaultString(h.defaultDir),
		),
	)
}

// Handle runs one batch. Batch failures produce an empty list rather than a
// tool error; only malformed arguments are reported as errors.
func (h *Handler) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	videoURL, err := req.RequireString("youtube_url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	timestamps, err := timestampArg(req.GetArguments()["timestamps"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outputDir := req.GetString("output_dir", h.defaultDir)
	if outputDir == "" {
		outputDir = h.defaultDir
	}

	h.log.Info("tool call",
		zap.String("tool", ToolName),
		zap.String("url", videoURL),
		zap.Strings("timestamps", timestamps),
		zap.String("output_dir", outputDir),
	)

	shots, err := h.taker.Take(ctx, videoURL, timestamps, outputDir)
	if err != nil {
		h.log.Warn("batch aborted", zap.String("url", videoURL), zap.Error(err))
	}

	if h.recorder != nil && len(shots) > 0 {
		if _, err := h.recorder.Record(ctx, videoURL, naming.DeriveStem(videoURL), shots); err != nil {
			h.log.Debug("saving history failed", zap.Error(err))
		}
	}

	data, err := json.Marshal(screenshot.Paths(shots))
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// timestampArg converts the raw "timestamps" argument into strings.
func timestampArg(raw any) ([]string, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("timestamps must be an array of strings or numbers")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, screenshot.FormatTimestamp(item))
	}
	return out, nil
}

// New builds an MCP server with youtube_screenshot_tool registered.
func New(h *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(h.Tool(), h.Handle)
	return s
}

// Serve runs s on the given transport until it stops. addr is ignored for stdio.
func Serve(ctx context.Context, s *server.MCPServer, transport, addr string, log *zap.Logger) error {
	switch transport {
	case "stdio":
		log.Info("serving over stdio", zap.String("server", ServerName))
		return server.ServeStdio(s)
	case "sse":
		sse := server.NewSSEServer(s)
		log.Info("serving over SSE", zap.String("addr", addr))
		return serveHTTP(ctx, addr, sse.Start, sse.Shutdown)
	case "http":
		hs := server.NewStreamableHTTPServer(s)
		log.Info("serving over streamable HTTP", zap.String("addr", addr))
		return serveHTTP(ctx, addr, hs.Start, hs.Shutdown)
	default:
		return fmt.Errorf("unsupported transport %q", transport)
	}
}

// serveHTTP starts a listener and shuts it down when ctx is cancelled.
func serveHTTP(ctx context.Context, addr string, start func(string) error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return shutdown(context.Background())
	}
}
