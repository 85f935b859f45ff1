// CLAUDE:SUMMARY Persists benchmark runs on disk: per-run directories, latest pointer, and the bounded newest-first run index.
// Package runstore owns the on-disk layout of benchmark results:
//
//	<root>/runs/<runID>/run.json        combined run record
//	<root>/runs/<runID>/<target>.json   per-target record
//	<root>/runs/<runID>/<target>-k6.json raw k6 metrics (NDJSON)
//	<root>/runs/<runID>/<target>.png    screenshot
//	<root>/runs/<runID>/SUMMARY.md      rendered summary
//	<root>/latest/                      copy of the most recent run + summary
//	<root>/index.json                   last <=50 runs, newest first
//	<root>/COMPARISON.md                last comparison report
//
// A run is write-once: it is persisted completely, then its index entry is
// appended. Nothing here ever edits a persisted run.
package runstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hazyhaar/benchrun/probe"
)

// MaxIndexEntries bounds the run index. Inserting beyond the cap evicts
// the oldest entries by timestamp.
const MaxIndexEntries = 50

// runIDFormat gives lexically sortable second-resolution identifiers.
const runIDFormat = "20060102-150405"

// TargetRecord is the combined result for one target in one run.
type TargetRecord struct {
	Target  string               `json:"target"`
	URL     string               `json:"url"`
	Browser *probe.BrowserResult `json:"browser"`
	Load    *probe.LoadResult    `json:"load,omitempty"`
}

// Run is one full pass of the harness across a set of targets.
type Run struct {
	RunID     string         `json:"run_id"`
	Timestamp time.Time      `json:"timestamp"`
	Targets   []TargetRecord `json:"targets"`
}

// IndexEntry is one line of run history.
type IndexEntry struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Targets   []string  `json:"targets"`
}

// RunNotFoundError reports a run identifier that could not be resolved to
// a persisted, parseable run record.
type RunNotFoundError struct {
	RunID string
	Cause error
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("runstore: run %q not found", e.RunID)
}

func (e *RunNotFoundError) Unwrap() error { return e.Cause }

// Store reads and writes the results tree under a single root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// New creates a Store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: dir, logger: logger}
}

// Root returns the results root directory.
func (s *Store) Root() string { return s.root }

// RunDir returns the directory of a run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.root, "runs", runID)
}

// CreateRun allocates a run identifier from the start instant and creates
// its directory. Identifiers have second resolution; a second run started
// within the same second gets a "-2", "-3"... suffix, which keeps IDs
// unique and still lexically sortable.
func (s *Store) CreateRun(start time.Time) (string, error) {
	base := start.UTC().Format(runIDFormat)

	runID := base
	for n := 2; ; n++ {
		dir := s.RunDir(runID)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("runstore: create run dir: %w", err)
			}
			return runID, nil
		}
		runID = fmt.Sprintf("%s-%d", base, n)
	}
}

// SaveTargetRecord writes the per-target record into the run directory.
func (s *Store) SaveTargetRecord(runID string, rec TargetRecord) error {
	path := filepath.Join(s.RunDir(runID), rec.Target+".json")
	return writeJSON(path, rec)
}

// SaveRun writes the combined run record.
func (s *Store) SaveRun(run *Run) error {
	return writeJSON(filepath.Join(s.RunDir(run.RunID), "run.json"), run)
}

// WriteSummary writes the rendered Markdown summary into the run directory.
func (s *Store) WriteSummary(runID, markdown string) error {
	path := filepath.Join(s.RunDir(runID), "SUMMARY.md")
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("runstore: write summary: %w", err)
	}
	return nil
}

// WriteLatest replaces the latest pointer with a copy of run and its
// rendered summary.
func (s *Store) WriteLatest(run *Run, markdown string) error {
	dir := filepath.Join(s.root, "latest")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("runstore: latest dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, "run.json"), run); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "SUMMARY.md"), []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("runstore: write latest summary: %w", err)
	}
	return nil
}

// WriteComparison overwrites the top-level comparison document.
func (s *Store) WriteComparison(markdown string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("runstore: root dir: %w", err)
	}
	path := filepath.Join(s.root, "COMPARISON.md")
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("runstore: write comparison: %w", err)
	}
	return nil
}

// LoadRun reads a persisted run record. A missing or unparseable record
// is reported as *RunNotFoundError.
func (s *Store) LoadRun(runID string) (*Run, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), "run.json"))
	if err != nil {
		return nil, &RunNotFoundError{RunID: runID, Cause: err}
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, &RunNotFoundError{RunID: runID, Cause: err}
	}
	return &run, nil
}

// AppendIndex appends an entry to the run index in a single
// read-modify-write, keeping the index newest-first and enforcing the
// retention cap. Cross-process races are out of scope: the harness is a
// one-shot tool with one index write per invocation.
func (s *Store) AppendIndex(entry IndexEntry) error {
	entries, err := s.LoadIndex()
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > MaxIndexEntries {
		evicted := len(entries) - MaxIndexEntries
		entries = entries[:MaxIndexEntries]
		s.logger.Debug("runstore: index cap reached", "evicted", evicted)
	}

	return writeJSON(s.indexPath(), entries)
}

// LoadIndex reads the run index, newest first. A missing index is an
// empty history, not an error.
func (s *Store) LoadIndex() ([]IndexEntry, error) {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runstore: read index: %w", err)
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("runstore: parse index: %w", err)
	}
	return entries, nil
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, "index.json")
}

// writeJSON writes v pretty-printed via a temp file and rename, so a
// crashed write never leaves a truncated record behind.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("runstore: marshal %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("runstore: mkdir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("runstore: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("runstore: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
