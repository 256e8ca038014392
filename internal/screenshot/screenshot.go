// Package screenshot runs the batch workflow: resolve the stream once, then
// grab one frame per timestamp, keeping whatever succeeds.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"ytshots/internal/capture"
	"ytshots/internal/media"
	"ytshots/internal/naming"
	"ytshots/internal/stream"
)

// ErrOutputDir is returned when the output directory cannot be created.
var ErrOutputDir = errors.New("cannot create output directory")

// Service takes screenshots of remote videos.
type Service struct {
	resolver stream.Resolver
	capturer capture.Capturer
	prefix   string
	log      *zap.Logger
}

// NewService creates a Service. prefix starts every screenshot filename.
func NewService(resolver stream.Resolver, capturer capture.Capturer, prefix string, log *zap.Logger) *Service {
	return &Service{
		resolver: resolver,
		capturer: capturer,
		prefix:   prefix,
		log:      log,
	}
}

// Take captures videoURL at each timestamp into outputDir, in input order.
//
// A non-nil error means the batch was aborted before any capture (output
// directory or stream resolution failure). Individual capture failures are
// logged and skipped, so the result may be shorter than timestamps or empty.
func (s *Service) Take(ctx context.Context, videoURL string, timestamps []string, outputDir string) ([]media.Screenshot, error) {
	if err := EnsureDir(outputDir); err != nil {
		s.log.Error("creating output directory", zap.String("dir", outputDir), zap.Error(err))
		return nil, err
	}

	st, err := s.resolver.Resolve(ctx, videoURL)
	if err != nil {
		s.log.Error("could not retrieve a video stream URL", zap.String("url", videoURL), zap.Error(err))
		return nil, fmt.Errorf("resolving stream: %w", err)
	}
	if st == nil || st.URL == "" {
		s.log.Error("could not retrieve a video stream URL", zap.String("url", videoURL))
		return nil, fmt.Errorf("resolving stream: %w", stream.ErrNoStream)
	}

	stem := naming.DeriveStem(videoURL)

	var shots []media.Screenshot
	for _, raw := range timestamps {
		ts := strings.TrimSpace(raw)
		if ts == "" {
			continue
		}

		path, ok := s.captureOne(ctx, st.URL, videoURL, stem, ts, outputDir)
		if ok {
			shots = append(shots, media.Screenshot{Timestamp: ts, Path: path})
		}
	}

	return shots, nil
}

// captureOne makes a single attempt at one timestamp. Any failure, including
// a panic in the capturer, is logged and reported as !ok.
func (s *Service) captureOne(ctx context.Context, streamURL, videoURL, stem, ts, outputDir string) (path string, ok bool) {
	log := s.log.With(zap.String("url", videoURL), zap.String("timestamp", ts))

	defer func() {
		if r := recover(); r != nil {
			log.Warn("unexpected failure capturing frame", zap.Any("panic", r))
			path, ok = "", false
		}
	}()

	out, err := naming.SafeJoin(outputDir, naming.ScreenshotFilename(s.prefix, stem, ts))
	if err != nil {
		log.Warn("invalid output path", zap.Error(err))
		return "", false
	}

	log.Info("capturing frame")
	if err := s.capturer.Capture(ctx, streamURL, ts, out); err != nil {
		fields := []zap.Field{zap.String("output", out), zap.Error(err)}
		var ce *capture.Error
		if errors.As(err, &ce) {
			fields = append(fields,
				zap.Int("exit_code", ce.ExitCode),
				zap.String("stdout", ce.Stdout),
				zap.String("stderr", ce.Stderr),
			)
		}
		log.Warn("capture failed, skipping timestamp", fields...)
		return "", false
	}

	log.Info("saved screenshot", zap.String("output", out))
	return out, true
}

// EnsureDir creates dir and any parents. It is a no-op when dir exists.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w %s: %w", ErrOutputDir, dir, err)
	}
	return nil
}

// Paths returns the image paths of shots in order. It never returns nil.
func Paths(shots []media.Screenshot) []string {
	paths := make([]string, 0, len(shots))
	for _, s := range shots {
		paths = append(paths, s.Path)
	}
	return paths
}

// FormatTimestamp stringifies a timestamp received as a string or a number.
// Numbers use their shortest decimal form, so 10 becomes "10" and 12.5 "12.5".
func FormatTimestamp(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// OutputDir returns the absolute form of dir, falling back to dir itself.
func OutputDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
