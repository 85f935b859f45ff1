// CLAUDE:SUMMARY SQLite-backed event log recording run, probe, and comparison events beside the results tree.
// Package observability records harness events in a small SQLite database
// beside the results tree. Every run, probe phase, and comparison leaves a
// row, so operators can reconstruct what the harness did without parsing
// run artifacts.
//
// Recording is best-effort: a failing event store logs a warning and never
// fails the benchmark itself.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/benchrun/idgen"
)

// Schema is the DDL for the events table.
const Schema = `
CREATE TABLE IF NOT EXISTS harness_events (
	event_id    TEXT PRIMARY KEY,
	run_id      TEXT,
	target      TEXT,
	phase       TEXT NOT NULL,
	status      TEXT NOT NULL,
	detail      TEXT,
	duration_ms INTEGER,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_harness_events_run
	ON harness_events(run_id, created_at);
`

// Phases recorded by the harness.
const (
	PhaseRun     = "run"
	PhaseBrowser = "browser"
	PhaseLoad    = "load"
	PhaseCompare = "compare"
)

// Event is one recorded harness event.
type Event struct {
	RunID      string
	Target     string
	Phase      string
	Status     string // "ok", "error", "skipped"
	Detail     string
	DurationMS int64
}

// Open opens (or creates) the event database at path with the usual
// SQLite production pragmas and applies the schema.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("observability: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("observability: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("observability: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("observability: schema: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory event database for testing. MaxOpenConns
// is pinned to 1 so every query hits the same in-memory database.
func OpenMemory(t testing.TB) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("observability.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// Recorder writes events. A nil Recorder is valid and records nothing,
// so callers never need to branch on whether observability is enabled.
type Recorder struct {
	db    *sql.DB
	newID idgen.Generator
}

// NewRecorder creates a Recorder on an event database.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
}

// Record inserts one event. Errors are logged via slog and swallowed: the
// event store must never block or fail a benchmark run.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.db == nil {
		return
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO harness_events (
			event_id, run_id, target, phase, status, detail, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?,?)`,
		r.newID(), event.RunID, event.Target, event.Phase, event.Status,
		event.Detail, event.DurationMS, time.Now().Unix())
	if err != nil {
		slog.Warn("observability: event record failed",
			"phase", event.Phase, "error", err)
	}
}

// CountEvents returns the number of recorded events for a run. Used by
// tests and by the informational CLI output.
func (r *Recorder) CountEvents(ctx context.Context, runID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, nil
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM harness_events WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("observability: count events: %w", err)
	}
	return n, nil
}
