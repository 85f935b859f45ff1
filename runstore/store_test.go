package runstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/benchrun/probe"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), nil)
}

func TestCreateRun_CollisionSuffix(t *testing.T) {
	// WHAT: Two runs started within the same second get distinct IDs via
	// a numeric suffix.
	// WHY: Second-resolution IDs would otherwise silently share a run
	// directory and overwrite each other.
	s := newTestStore(t)
	start := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	first, err := s.CreateRun(start)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	second, err := s.CreateRun(start)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	if first != "20260827-100000" {
		t.Errorf("first run ID = %q", first)
	}
	if second != "20260827-100000-2" {
		t.Errorf("second run ID = %q", second)
	}
	if !(first < second) {
		t.Errorf("IDs not lexically ordered: %q, %q", first, second)
	}
}

func TestSaveLoadRun_Roundtrip(t *testing.T) {
	// WHAT: A persisted run reads back intact, including the load status.
	s := newTestStore(t)
	runID, err := s.CreateRun(time.Now())
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	run := &Run{
		RunID:     runID,
		Timestamp: time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
		Targets: []TargetRecord{{
			Target:  "pyxis",
			URL:     "https://pyxis.example.com",
			Browser: &probe.BrowserResult{Target: "pyxis"},
			Load:    &probe.LoadResult{Target: "pyxis", Status: probe.LoadSkipped},
		}},
	}
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if got.RunID != runID || len(got.Targets) != 1 {
		t.Fatalf("LoadRun: got %+v", got)
	}
	if got.Targets[0].Load.Status != probe.LoadSkipped {
		t.Errorf("load status = %q, want %q", got.Targets[0].Load.Status, probe.LoadSkipped)
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	// WHAT: A missing run surfaces as *RunNotFoundError naming the ID.
	// WHY: The comparison CLI must report exactly which identifier was bad.
	s := newTestStore(t)

	_, err := s.LoadRun("20990101-000000")
	var nf *RunNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("LoadRun: got %v, want RunNotFoundError", err)
	}
	if nf.RunID != "20990101-000000" {
		t.Errorf("RunNotFoundError.RunID = %q", nf.RunID)
	}
}

func TestLoadRun_Corrupt(t *testing.T) {
	// WHAT: An unparseable run record is reported as not found, not as a
	// raw decoding error.
	s := newTestStore(t)
	runID, _ := s.CreateRun(time.Now())
	path := filepath.Join(s.RunDir(runID), "run.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := s.LoadRun(runID)
	var nf *RunNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("LoadRun: got %v, want RunNotFoundError", err)
	}
}

func TestAppendIndex_NewestFirstAndCapped(t *testing.T) {
	// WHAT: The index stays newest-first and never exceeds the cap; the
	// oldest entry is evicted on overflow.
	// WHY: The index is bounded run history, not an unbounded log.
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i <= MaxIndexEntries; i++ {
		entry := IndexEntry{
			RunID:     fmt.Sprintf("run-%03d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Targets:   []string{"pyxis"},
		}
		if err := s.AppendIndex(entry); err != nil {
			t.Fatalf("AppendIndex(%d): %v", i, err)
		}
	}

	entries, err := s.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(entries) != MaxIndexEntries {
		t.Fatalf("index has %d entries, want %d", len(entries), MaxIndexEntries)
	}
	if entries[0].RunID != fmt.Sprintf("run-%03d", MaxIndexEntries) {
		t.Errorf("newest entry = %q", entries[0].RunID)
	}
	// run-000 was the oldest; it must be gone.
	for _, e := range entries {
		if e.RunID == "run-000" {
			t.Error("oldest entry was not evicted")
		}
	}
}

func TestLoadIndex_MissingIsEmpty(t *testing.T) {
	// WHAT: No index file means empty history, not an error.
	s := newTestStore(t)
	entries, err := s.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("LoadIndex: got %d entries, want 0", len(entries))
	}
}

func TestWriteLatest(t *testing.T) {
	// WHAT: The latest pointer holds a copy of the run and its summary.
	s := newTestStore(t)
	run := &Run{RunID: "20260827-100000", Timestamp: time.Now()}

	if err := s.WriteLatest(run, "# Summary\n"); err != nil {
		t.Fatalf("WriteLatest: %v", err)
	}
	for _, name := range []string{"run.json", "SUMMARY.md"} {
		if _, err := os.Stat(filepath.Join(s.Root(), "latest", name)); err != nil {
			t.Errorf("latest/%s missing: %v", name, err)
		}
	}
}
