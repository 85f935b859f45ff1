// CLAUDE:SUMMARY Aligns per-target metrics across two or more persisted runs and marks fastest/slowest values.
// Package compare loads two or more persisted runs and aligns their
// per-target metrics into a comparison report. It reads runs through the
// runstore and performs no other I/O; rendering lives in package report.
package compare

import (
	"errors"
	"sort"
	"time"

	"github.com/hazyhaar/benchrun/probe"
	"github.com/hazyhaar/benchrun/runstore"
)

// ErrInsufficientRuns is returned when fewer than two run identifiers are
// given: there is nothing to compare.
var ErrInsufficientRuns = errors.New("compare: need at least 2 runs to compare")

// Metrics is the fixed list of comparable metrics, in report order.
// loadComplete is recorded per run but not compared: it duplicates
// pageLoad for full page loads.
var Metrics = []string{
	probe.MetricPageLoad,
	probe.MetricDOMContentLoaded,
	probe.MetricDOMInteractive,
	probe.MetricTTFB,
	probe.MetricDNS,
	probe.MetricTCP,
	probe.MetricDownload,
}

// RunHeader identifies one compared run. Runs are always ordered
// ascending by timestamp in the report.
type RunHeader struct {
	RunID     string
	Timestamp time.Time
}

// MetricRow is one metric aligned across all compared runs. Values is
// parallel to Report.Runs. Best and Worst hold the indices of the runs
// attaining the minimum and maximum; both are empty when every run is
// equal.
type MetricRow struct {
	Metric string
	Values []float64
	Best   []int
	Worst  []int
}

// TargetComparison is the comparison for one target key. When the target
// is absent from at least one run, Partial is true and no rows or
// availability are produced.
type TargetComparison struct {
	Target       string
	Partial      bool
	Rows         []MetricRow
	Availability []probe.LoadStatus // parallel to Report.Runs
}

// Report is the structured comparison handed to the renderers.
type Report struct {
	Runs    []RunHeader
	Targets []TargetComparison
}

// Compare loads the named runs and builds a Report. It fails with
// ErrInsufficientRuns for fewer than two identifiers and with
// *runstore.RunNotFoundError when a run cannot be loaded.
func Compare(store *runstore.Store, runIDs []string) (*Report, error) {
	if len(runIDs) < 2 {
		return nil, ErrInsufficientRuns
	}

	runs := make([]*runstore.Run, 0, len(runIDs))
	for _, id := range runIDs {
		run, err := store.LoadRun(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	// Chronological order regardless of argument order, so tables always
	// read left-to-right in time.
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	rep := &Report{}
	for _, run := range runs {
		rep.Runs = append(rep.Runs, RunHeader{RunID: run.RunID, Timestamp: run.Timestamp})
	}

	for _, key := range unionTargets(runs) {
		rep.Targets = append(rep.Targets, compareTarget(key, runs))
	}
	return rep, nil
}

// unionTargets returns all target keys seen in any run, in first-seen
// order across the chronologically sorted runs.
func unionTargets(runs []*runstore.Run) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, run := range runs {
		for _, rec := range run.Targets {
			if !seen[rec.Target] {
				seen[rec.Target] = true
				keys = append(keys, rec.Target)
			}
		}
	}
	return keys
}

func compareTarget(key string, runs []*runstore.Run) TargetComparison {
	tc := TargetComparison{Target: key}

	records := make([]*runstore.TargetRecord, len(runs))
	for i, run := range runs {
		records[i] = findRecord(run, key)
		if records[i] == nil {
			tc.Partial = true
		}
	}
	if tc.Partial {
		// No partial rows, no interpolation: the target is only noted.
		return tc
	}

	for _, metric := range Metrics {
		row, ok := buildRow(metric, records)
		if ok {
			tc.Rows = append(tc.Rows, row)
		}
	}

	for _, rec := range records {
		tc.Availability = append(tc.Availability, loadStatus(rec.Load))
	}
	return tc
}

func findRecord(run *runstore.Run, key string) *runstore.TargetRecord {
	for i := range run.Targets {
		if run.Targets[i].Target == key {
			return &run.Targets[i]
		}
	}
	return nil
}

// buildRow aligns one metric across records. The row exists only when
// every run defines the metric; a metric present in some runs but not
// others is omitted entirely rather than rendered with blanks.
func buildRow(metric string, records []*runstore.TargetRecord) (MetricRow, bool) {
	row := MetricRow{Metric: metric}
	for _, rec := range records {
		if rec.Browser == nil {
			return MetricRow{}, false
		}
		v, ok := rec.Browser.Metric(metric)
		if !ok {
			return MetricRow{}, false
		}
		row.Values = append(row.Values, v)
	}

	min, max := row.Values[0], row.Values[0]
	for _, v := range row.Values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		// All runs equal: nobody is fastest or slowest.
		return row, true
	}
	for i, v := range row.Values {
		if v == min {
			row.Best = append(row.Best, i)
		}
		if v == max {
			row.Worst = append(row.Worst, i)
		}
	}
	return row, true
}

// loadStatus collapses a persisted load result into the three-state
// availability value. A run recorded before the load phase existed
// (nil record) counts as skipped.
func loadStatus(res *probe.LoadResult) probe.LoadStatus {
	if res == nil {
		return probe.LoadSkipped
	}
	return res.Status
}
