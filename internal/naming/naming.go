// Package naming derives deterministic, filesystem-safe names for screenshots
// from video URLs and timestamps.
package naming

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// FallbackStem is used when a URL yields no identifier.
	FallbackStem = "custom_video_id"

	// FallbackFolderID names the per-video folder when a URL yields no identifier.
	FallbackFolderID = "unknown_video"

	// Extension is the image extension of every screenshot.
	Extension = "jpg"
)

// unsafeChars matches everything outside [A-Za-z0-9_.-].
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// SanitizeForFilename replaces every character that is not alphanumeric,
// underscore, hyphen or dot with an underscore.
func SanitizeForFilename(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

// rawIdentifier returns the unescaped identifier of a video URL: the value
// following the last "v=" marker up to the next "&", otherwise the basename
// of the URL's path with the query string removed. It may be empty.
func rawIdentifier(videoURL string) string {
	if i := strings.LastIndex(videoURL, "v="); i != -1 {
		id := videoURL[i+len("v="):]
		if amp := strings.Index(id, "&"); amp != -1 {
			id = id[:amp]
		}
		return id
	}

	p := videoURL
	if q := strings.Index(p, "?"); q != -1 {
		p = p[:q]
	}
	// Basename without path.Base's trailing-slash trimming: "https://x.test/" has none.
	if slash := strings.LastIndex(p, "/"); slash != -1 {
		p = p[slash+1:]
	}
	return p
}

// DeriveStem returns the percent-escaped identifier for a video URL, or
// FallbackStem when the URL has none.
func DeriveStem(videoURL string) string {
	id := rawIdentifier(videoURL)
	if id == "" {
		return FallbackStem
	}
	return url.QueryEscape(id)
}

// FolderID returns the per-video folder identifier used by the CLI.
func FolderID(videoURL string) string {
	id := rawIdentifier(videoURL)
	if id == "" {
		id = FallbackFolderID
	}
	return url.QueryEscape(id)
}

// ScreenshotFilename builds "<prefix>_<stem>_ts_<timestamp>.jpg" with the
// base part and timestamp sanitized independently.
func ScreenshotFilename(prefix, stem, timestamp string) string {
	base := SanitizeForFilename(prefix + "_" + stem)
	return fmt.Sprintf("%s_ts_%s.%s", base, SanitizeForFilename(timestamp), Extension)
}

// FolderName builds the per-video subfolder name "<prefix>_<folderID>".
func FolderName(prefix, videoURL string) string {
	return SanitizeForFilename(prefix + "_" + FolderID(videoURL))
}

// SafeJoin resolves filename inside dir and verifies the result stays within it.
func SafeJoin(dir, filename string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	resolved := filepath.Join(absDir, filename)
	rel, err := filepath.Rel(absDir, resolved)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", resolved, absDir)
	}

	return resolved, nil
}
