// Package history keeps a log of transcription runs in SQLite.
//
// Every conversion started from the CLI, the HTTP API or an MCP client is
// recorded with its source, output, selections and element counts, so a
// later "history" query can show what was produced and what failed.
//
// Usage:
//
//	store, err := history.Open("transcribe.db")
//	if err != nil {
//	    // handle error
//	}
//	defer store.Close()
//	runs, err := store.List(ctx, 20)
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

// ErrNotFound is returned by Get for an unknown run ID
var ErrNotFound = errors.New("history: run not found")

// Run status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultLimit is the number of runs List returns when limit <= 0
const DefaultLimit = 20

// Run is one recorded conversion
type Run struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Output       string        `json:"output,omitempty"`
	Format       string        `json:"format"`
	Operation    string        `json:"operation"`
	Origin       string        `json:"origin"` // cli, http or mcp
	Pages        int           `json:"pages"`
	Elements     int           `json:"elements"`
	Pictures     int           `json:"pictures"`
	Placeholders int           `json:"placeholders"`
	Status       string        `json:"status"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    source       TEXT NOT NULL,
    output       TEXT NOT NULL DEFAULT '',
    format       TEXT NOT NULL DEFAULT '',
    operation    TEXT NOT NULL DEFAULT '',
    origin       TEXT NOT NULL DEFAULT '',
    pages        INTEGER NOT NULL DEFAULT 0,
    elements     INTEGER NOT NULL DEFAULT 0,
    pictures     INTEGER NOT NULL DEFAULT 0,
    placeholders INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    error        TEXT NOT NULL DEFAULT '',
    started_at   INTEGER NOT NULL,
    duration_ns  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

// Store records runs in a SQLite database
type Store struct {
	db    *sql.DB
	owned bool
	now   func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("history: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// modernc connections do not share an in-memory database
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: %s: %w", pragma, err)
		}
	}

	s := New(db)
	s.owned = true
	if err := s.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database. Call Init before use.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Init creates the runs table if it does not exist
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history schema: %w", err)
		}
	}
	return nil
}

// Close closes the database when the Store opened it
func (s *Store) Close() error {
	if s == nil || !s.owned {
		return nil
	}
	return s.db.Close()
}

// Record stores run. A missing ID, start time or status is filled in
// before the insert and is visible to the caller afterwards.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("history: generate id: %w", err)
		}
		run.ID = id.String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	if run.Status == "" {
		run.Status = StatusSuccess
		if run.Error != "" {
			run.Status = StatusError
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, output, format, operation, origin,
			pages, elements, pictures, placeholders, status, error, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Output, run.Format, run.Operation, run.Origin,
		run.Pages, run.Elements, run.Pictures, run.Placeholders, run.Status, run.Error,
		run.StartedAt.UnixNano(), int64(run.Duration))
	if err != nil {
		return fmt.Errorf("history: record run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT id, source, output, format, operation, origin,
		pages, elements, pictures, placeholders, status, error, started_at, duration_ns
	FROM runs`

// List returns the most recent runs, newest first
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given ID
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run      Run
		started  int64
		duration int64
	)
	err := sc.Scan(&run.ID, &run.Source, &run.Output, &run.Format, &run.Operation, &run.Origin,
		&run.Pages, &run.Elements, &run.Pictures, &run.Placeholders, &run.Status, &run.Error,
		&started, &duration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("history: scan run: %w", err)
	}
	run.StartedAt = time.Unix(0, started).UTC()
	run.Duration = time.Duration(duration)
	return run, nil
}
