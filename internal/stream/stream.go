// Package stream resolves video page URLs into short-lived direct media
// stream URLs by running yt-dlp.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"ytshots/internal/media"
)

// ErrNoStream is returned when neither the preferred nor the fallback query
// produced a stream URL.
var ErrNoStream = errors.New("no stream URL resolved")

// preferredFormat selects the best video-only stream.
const preferredFormat = "bestvideo"

// waitDelay bounds how long Wait blocks on pipes held by orphaned children
// after the process group is killed.
const waitDelay = 2 * time.Second

// Resolver resolves a video URL into a direct media stream.
type Resolver interface {
	Resolve(ctx context.Context, videoURL string) (*media.Stream, error)
}

// YtDlp implements Resolver with the yt-dlp binary.
type YtDlp struct {
	binary  string
	timeout time.Duration
	log     *zap.Logger
}

// NewYtDlp creates a resolver running binary (a path or a name looked up in
// PATH) with a wall-clock timeout per invocation.
func NewYtDlp(binary string, timeout time.Duration, log *zap.Logger) *YtDlp {
	if path, err := exec.LookPath(binary); err == nil {
		binary = path
	}
	return &YtDlp{binary: binary, timeout: timeout, log: log}
}

// attempt is the outcome of one yt-dlp invocation.
type attempt struct {
	url      string
	stdout   string
	stderr   string
	exitCode int
	err      error
}

// Resolve asks for the best video-only stream and falls back once to an
// unconstrained query. A timeout on either query aborts resolution.
func (y *YtDlp) Resolve(ctx context.Context, videoURL string) (*media.Stream, error) {
	y.log.Info("fetching video stream URL", zap.String("url", videoURL))

	first := y.run(ctx, videoURL, preferredFormat)
	if first.url != "" {
		y.log.Info("fetched stream URL", zap.String("format", preferredFormat))
		return &media.Stream{URL: first.url, Format: preferredFormat}, nil
	}
	if errors.Is(first.err, context.DeadlineExceeded) || errors.Is(first.err, context.Canceled) {
		return nil, fmt.Errorf("yt-dlp timed out resolving %s: %w", videoURL, first.err)
	}

	y.log.Warn("bestvideo query failed, trying fallback query",
		zap.String("url", videoURL),
		zap.Int("exit_code", first.exitCode),
		zap.String("stdout", first.stdout),
		zap.String("stderr", first.stderr),
		zap.Error(first.err),
	)

	second := y.run(ctx, videoURL, "")
	if second.url != "" {
		y.log.Info("fetched fallback stream URL")
		return &media.Stream{URL: second.url, Format: "best"}, nil
	}
	if errors.Is(second.err, context.DeadlineExceeded) || errors.Is(second.err, context.Canceled) {
		return nil, fmt.Errorf("yt-dlp timed out resolving %s: %w", videoURL, second.err)
	}

	y.log.Error("fallback query failed",
		zap.String("url", videoURL),
		zap.Int("exit_code", second.exitCode),
		zap.String("stdout", second.stdout),
		zap.String("stderr", second.stderr),
		zap.Error(second.err),
	)
	if second.err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrNoStream, videoURL, second.err)
	}
	return nil, fmt.Errorf("%w for %s", ErrNoStream, videoURL)
}

// Args builds the yt-dlp argument list for a "-g --no-warnings" query,
// optionally constrained to format.
func Args(videoURL, format string) ([]string, error) {
	dl := ytdlp.New().
		GetURL().
		NoWarnings()
	if format != "" {
		dl = dl.Format(format)
	}

	flags := dl.GetFlagConfig()
	if err := flags.Validate(); err != nil {
		return nil, fmt.Errorf("building yt-dlp arguments: %w", err)
	}

	var args []string
	for _, f := range flags.ToFlags() {
		args = append(args, f.Raw()...)
	}
	return append(args, videoURL), nil
}

// run performs a single query. When the timeout elapses the whole process
// group is killed, and Wait gives up on inherited pipes after waitDelay.
func (y *YtDlp) run(ctx context.Context, videoURL, format string) attempt {
	args, err := Args(videoURL, format)
	if err != nil {
		return attempt{exitCode: -1, err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.binary, args...)
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	a := attempt{stdout: stdout.String(), stderr: stderr.String(), exitCode: -1}
	if cmd.ProcessState != nil {
		a.exitCode = cmd.ProcessState.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		a.err = ctxErr
		return a
	}
	if err != nil {
		a.err = err
		return a
	}
	a.url = FirstLine(a.stdout)
	return a
}

// FirstLine returns the first non-empty line of yt-dlp output with
// surrounding whitespace removed. Later lines (e.g. a separate audio URL)
// are discarded.
func FirstLine(out string) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return ""
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line)
}
