package compare

import (
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/benchrun/probe"
	"github.com/hazyhaar/benchrun/runstore"
)

func newTestStore(t *testing.T) *runstore.Store {
	t.Helper()
	return runstore.New(t.TempDir(), nil)
}

// browserResult builds a successful browser result carrying the given
// canonical metrics in a single test entry.
func browserResult(target string, metrics map[string]float64) *probe.BrowserResult {
	return &probe.BrowserResult{
		Target: target,
		Tests: []probe.Test{{
			Name:    probe.TestPageLoad,
			Success: true,
			Metrics: metrics,
		}},
	}
}

func saveRun(t *testing.T, store *runstore.Store, run *runstore.Run) {
	t.Helper()
	if err := store.SaveRun(run); err != nil {
		t.Fatalf("SaveRun(%s): %v", run.RunID, err)
	}
}

func TestCompare_ChronologicalAndMarked(t *testing.T) {
	// WHAT: Output is chronological regardless of argument order, and the
	// pageLoad row marks the faster run fastest and the slower run slowest.
	// WHY: Comparison tables must always read left-to-right in time.
	store := newTestStore(t)
	saveRun(t, store, &runstore.Run{
		RunID:     "A",
		Timestamp: time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
		Targets: []runstore.TargetRecord{{
			Target:  "pyxis",
			Browser: browserResult("pyxis", map[string]float64{probe.MetricPageLoad: 245}),
			Load:    &probe.LoadResult{Status: probe.LoadOK},
		}},
	})
	saveRun(t, store, &runstore.Run{
		RunID:     "B",
		Timestamp: time.Date(2026, 8, 27, 10, 5, 0, 0, time.UTC),
		Targets: []runstore.TargetRecord{{
			Target:  "pyxis",
			Browser: browserResult("pyxis", map[string]float64{probe.MetricPageLoad: 198}),
			Load:    &probe.LoadResult{Status: probe.LoadOK},
		}},
	})

	for _, order := range [][]string{{"A", "B"}, {"B", "A"}} {
		rep, err := Compare(store, order)
		if err != nil {
			t.Fatalf("Compare(%v): %v", order, err)
		}
		if rep.Runs[0].RunID != "A" || rep.Runs[1].RunID != "B" {
			t.Fatalf("Compare(%v): run order %s, %s", order, rep.Runs[0].RunID, rep.Runs[1].RunID)
		}

		tc := rep.Targets[0]
		if len(tc.Rows) != 1 || tc.Rows[0].Metric != probe.MetricPageLoad {
			t.Fatalf("Compare(%v): rows = %+v", order, tc.Rows)
		}
		row := tc.Rows[0]
		if row.Values[0] != 245 || row.Values[1] != 198 {
			t.Errorf("Compare(%v): values = %v", order, row.Values)
		}
		if len(row.Best) != 1 || row.Best[0] != 1 {
			t.Errorf("Compare(%v): Best = %v, want [1]", order, row.Best)
		}
		if len(row.Worst) != 1 || row.Worst[0] != 0 {
			t.Errorf("Compare(%v): Worst = %v, want [0]", order, row.Worst)
		}
	}
}

func TestCompare_TieSuppressesMarkers(t *testing.T) {
	// WHAT: When every run has the same value, nobody is fastest or slowest.
	store := newTestStore(t)
	for i, id := range []string{"A", "B"} {
		saveRun(t, store, &runstore.Run{
			RunID:     id,
			Timestamp: time.Date(2026, 8, 27, 10, i*5, 0, 0, time.UTC),
			Targets: []runstore.TargetRecord{{
				Target:  "pyxis",
				Browser: browserResult("pyxis", map[string]float64{probe.MetricTTFB: 42}),
			}},
		})
	}

	rep, err := Compare(store, []string{"A", "B"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	row := rep.Targets[0].Rows[0]
	if len(row.Best) != 0 || len(row.Worst) != 0 {
		t.Errorf("tie: Best = %v, Worst = %v, want none", row.Best, row.Worst)
	}
}

func TestCompare_MissingTargetNoted(t *testing.T) {
	// WHAT: A target present in only one run gets a single note and zero
	// metric rows; no partial-row synthesis.
	store := newTestStore(t)
	saveRun(t, store, &runstore.Run{
		RunID:     "A",
		Timestamp: time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
		Targets: []runstore.TargetRecord{
			{Target: "pyxis", Browser: browserResult("pyxis", map[string]float64{probe.MetricPageLoad: 100})},
			{Target: "vega", Browser: browserResult("vega", map[string]float64{probe.MetricPageLoad: 200})},
		},
	})
	saveRun(t, store, &runstore.Run{
		RunID:     "B",
		Timestamp: time.Date(2026, 8, 27, 10, 5, 0, 0, time.UTC),
		Targets: []runstore.TargetRecord{
			{Target: "vega", Browser: browserResult("vega", map[string]float64{probe.MetricPageLoad: 150})},
		},
	})

	rep, err := Compare(store, []string{"A", "B"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	var pyxis, vega *TargetComparison
	for i := range rep.Targets {
		switch rep.Targets[i].Target {
		case "pyxis":
			pyxis = &rep.Targets[i]
		case "vega":
			vega = &rep.Targets[i]
		}
	}
	if pyxis == nil || vega == nil {
		t.Fatalf("targets = %+v", rep.Targets)
	}
	if !pyxis.Partial || len(pyxis.Rows) != 0 {
		t.Errorf("pyxis: Partial = %v, rows = %d, want partial with no rows",
			pyxis.Partial, len(pyxis.Rows))
	}
	if vega.Partial || len(vega.Rows) != 1 {
		t.Errorf("vega: Partial = %v, rows = %d, want full with one row",
			vega.Partial, len(vega.Rows))
	}
}

func TestCompare_PartialMetricOmitted(t *testing.T) {
	// WHAT: A metric defined in only some runs is omitted entirely, not
	// rendered with blanks.
	store := newTestStore(t)
	saveRun(t, store, &runstore.Run{
		RunID:     "A",
		Timestamp: time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
		Targets: []runstore.TargetRecord{{
			Target: "pyxis",
			Browser: browserResult("pyxis", map[string]float64{
				probe.MetricPageLoad: 100,
				probe.MetricDNS:      5,
			}),
		}},
	})
	saveRun(t, store, &runstore.Run{
		RunID:     "B",
		Timestamp: time.Date(2026, 8, 27, 10, 5, 0, 0, time.UTC),
		Targets: []runstore.TargetRecord{{
			Target:  "pyxis",
			Browser: browserResult("pyxis", map[string]float64{probe.MetricPageLoad: 90}),
		}},
	})

	rep, err := Compare(store, []string{"A", "B"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	rows := rep.Targets[0].Rows
	if len(rows) != 1 || rows[0].Metric != probe.MetricPageLoad {
		t.Errorf("rows = %+v, want only pageLoad", rows)
	}
}

func TestCompare_AvailabilityThreeStates(t *testing.T) {
	// WHAT: The availability column carries ok, error, and skipped as
	// three distinct states per run.
	store := newTestStore(t)
	states := []*probe.LoadResult{
		{Status: probe.LoadOK},
		{Status: probe.LoadError, Err: "exit status 99"},
		{Status: probe.LoadSkipped},
	}
	for i, id := range []string{"A", "B", "C"} {
		saveRun(t, store, &runstore.Run{
			RunID:     id,
			Timestamp: time.Date(2026, 8, 27, 10, i*5, 0, 0, time.UTC),
			Targets: []runstore.TargetRecord{{
				Target:  "pyxis",
				Browser: browserResult("pyxis", map[string]float64{probe.MetricPageLoad: 100}),
				Load:    states[i],
			}},
		})
	}

	rep, err := Compare(store, []string{"C", "A", "B"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	got := rep.Targets[0].Availability
	want := []probe.LoadStatus{probe.LoadOK, probe.LoadError, probe.LoadSkipped}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("availability[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCompare_InsufficientRuns(t *testing.T) {
	// WHAT: Fewer than two identifiers is rejected with the sentinel.
	store := newTestStore(t)
	if _, err := Compare(store, []string{"A"}); !errors.Is(err, ErrInsufficientRuns) {
		t.Errorf("Compare(one): err = %v, want ErrInsufficientRuns", err)
	}
	if _, err := Compare(store, nil); !errors.Is(err, ErrInsufficientRuns) {
		t.Errorf("Compare(none): err = %v, want ErrInsufficientRuns", err)
	}
}

func TestCompare_UnknownRunNamed(t *testing.T) {
	// WHAT: An unresolvable run identifier fails with RunNotFoundError
	// naming that identifier.
	store := newTestStore(t)
	saveRun(t, store, &runstore.Run{
		RunID:     "A",
		Timestamp: time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
	})

	_, err := Compare(store, []string{"A", "missing"})
	var nf *runstore.RunNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Compare: err = %v, want RunNotFoundError", err)
	}
	if nf.RunID != "missing" {
		t.Errorf("RunNotFoundError.RunID = %q, want %q", nf.RunID, "missing")
	}
}
