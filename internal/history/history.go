// Package history records finished and failed exports in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status of a recorded export.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Entry is one export run.
type Entry struct {
	ID        string
	Project   string
	Output    string
	Status    Status
	Error     string
	Start     float64
	End       float64
	FPS       float64
	Width     int
	Height    int
	Frames    int
	Warnings  int64
	Audio     bool
	Alpha     bool
	Bytes     int64
	Elapsed   time.Duration
	CreatedAt time.Time
}

// timeLayout keeps a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the export history database.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS exports (
	id         TEXT PRIMARY KEY,
	project    TEXT NOT NULL DEFAULT '',
	output     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	start_s    REAL NOT NULL,
	end_s      REAL NOT NULL,
	fps        REAL NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	frames     INTEGER NOT NULL,
	warnings   INTEGER NOT NULL DEFAULT 0,
	audio      INTEGER NOT NULL DEFAULT 0,
	alpha      INTEGER NOT NULL DEFAULT 0,
	bytes      INTEGER NOT NULL DEFAULT 0,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at);
`

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

// Record inserts e, assigning an ID and timestamp when missing.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusDone
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO exports
		(id, project, output, status, error, start_s, end_s, fps, width, height,
		 frames, warnings, audio, alpha, bytes, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Project, e.Output, string(e.Status), e.Error,
		e.Start, e.End, e.FPS, e.Width, e.Height,
		e.Frames, e.Warnings, boolToInt(e.Audio), boolToInt(e.Alpha),
		e.Bytes, e.Elapsed.Milliseconds(), e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}

// List returns the newest entries first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, project, output, status, error, start_s, end_s, fps, width, height,
		frames, warnings, audio, alpha, bytes, elapsed_ms, created_at
		FROM exports ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		e               Entry
		status, created string
		audio, alpha    int
		elapsedMS       int64
	)
	if err := scanner.Scan(&e.ID, &e.Project, &e.Output, &status, &e.Error,
		&e.Start, &e.End, &e.FPS, &e.Width, &e.Height,
		&e.Frames, &e.Warnings, &audio, &alpha, &e.Bytes, &elapsedMS, &created); err != nil {
		return Entry{}, fmt.Errorf("scan export: %w", err)
	}
	e.Status = Status(status)
	e.Audio, e.Alpha = audio != 0, alpha != 0
	e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	t, err := parseTimeString(created)
	if err != nil {
		return Entry{}, err
	}
	e.CreatedAt = t
	return e, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
