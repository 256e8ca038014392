// Package media defines shared types for the ytshots application.
package media

import "time"

// Stream is a resolved, short-lived direct media URL.
type Stream struct {
	URL    string // Direct media URL, valid only for the current batch
	Format string // Format selector that produced it, e.g. "bestvideo"
}

// Screenshot is a frame that was written to disk successfully.
type Screenshot struct {
	Timestamp string // Trimmed timestamp as handed to ffmpeg
	Path      string // Absolute path of the image
}

// HistoryEntry is one recorded screenshot in the capture history.
type HistoryEntry struct {
	RunID      string    // Identifier shared by all screenshots of one batch
	VideoURL   string    // Source video URL
	Stem       string    // Filename stem derived from the URL
	Timestamp  string    // Timestamp string
	Path       string    // Absolute path of the image
	CapturedAt time.Time // UTC capture time
}
