// Package history records saved screenshots in a SQLite database so past
// captures can be listed later.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ytshots/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS captures (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	video_url   TEXT NOT NULL,
	stem        TEXT NOT NULL,
	timestamp   TEXT NOT NULL,
	path        TEXT NOT NULL,
	captured_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS captures_captured_at ON captures (captured_at);
`

// Store is a capture history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores every screenshot of one batch under a fresh run ID and
// returns that ID. Nothing is written for an empty batch.
func (s *Store) Record(ctx context.Context, videoURL, stem string, shots []media.Screenshot) (string, error) {
	if len(shots) == 0 {
		return "", nil
	}

	runID := uuid.NewString()
	capturedAt := s.now().UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting history transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO captures (run_id, video_url, stem, timestamp, path, captured_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing history insert: %w", err)
	}
	defer stmt.Close()

	for _, shot := range shots {
		if _, err := stmt.ExecContext(ctx, runID, videoURL, stem, shot.Timestamp, shot.Path, capturedAt); err != nil {
			return "", fmt.Errorf("writing history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing history: %w", err)
	}

	return runID, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]media.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, video_url, stem, timestamp, path, captured_at
		   FROM captures ORDER BY captured_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var e media.HistoryEntry
		var capturedAt int64
		if err := rows.Scan(&e.RunID, &e.VideoURL, &e.Stem, &e.Timestamp, &e.Path, &capturedAt); err != nil {
			return nil, fmt.Errorf("reading history row: %w", err)
		}
		e.CapturedAt = time.UnixMilli(capturedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return entries, nil
}

// FormatForDisplay creates one display line per entry.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, fmt.Sprintf("%s  %-10s  %s  %s",
			e.CapturedAt.Local().Format("2006-01-02 15:04:05"), e.Timestamp, e.VideoURL, e.Path))
	}
	return items
}
