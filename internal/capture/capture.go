// Package capture grabs single frames from a media stream with ffmpeg.
// ffmpeg is run with exec.CommandContext and an explicit argument slice;
// no shell is involved.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// ErrEmptyOutput is returned when ffmpeg exits successfully but the output
// file is missing or empty.
var ErrEmptyOutput = errors.New("output file missing or empty")

// waitDelay bounds how long Wait blocks on pipes after the process is killed.
const waitDelay = 2 * time.Second

// Capturer writes one frame of a stream at a seek offset to outputPath.
type Capturer interface {
	Capture(ctx context.Context, streamURL, timestamp, outputPath string) error
}

// Error carries ffmpeg's diagnostics for a failed capture.
type Error struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ffmpeg failed (exit %d): %v", e.ExitCode, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FFmpeg implements Capturer with the ffmpeg binary.
type FFmpeg struct {
	binary  string
	quality int
	timeout time.Duration
}

// NewFFmpeg creates a capturer running binary (a path or a name looked up in
// PATH). quality is passed to -q:v.
func NewFFmpeg(binary string, quality int, timeout time.Duration) *FFmpeg {
	if path, err := exec.LookPath(binary); err == nil {
		binary = path
	}
	return &FFmpeg{binary: binary, quality: quality, timeout: timeout}
}

// Args builds the ffmpeg argument list for a single-frame capture.
func (f *FFmpeg) Args(streamURL, timestamp, outputPath string) []string {
	return []string{
		"-ss", timestamp, // Seek before input for fast keyframe seeking
		"-i", streamURL,
		"-vframes", "1",
		"-q:v", strconv.Itoa(f.quality),
		"-y", // Overwrite output
		"-loglevel", "error",
		outputPath,
	}
}

// Capture runs ffmpeg and succeeds only if it exits zero and outputPath
// exists with a nonzero size.
func (f *FFmpeg) Capture(ctx context.Context, streamURL, timestamp, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binary, f.Args(streamURL, timestamp, outputPath)...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{ExitCode: -1, Stdout: stdout.String(), Stderr: stderr.String(), Err: ctxErr}
	}
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &Error{ExitCode: code, Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return &Error{ExitCode: 0, Stdout: stdout.String(), Stderr: stderr.String(), Err: ErrEmptyOutput}
	}

	return nil
}
