// CLAUDE:SUMMARY Orchestrates one benchmark run: sequential browser + load probes per target, persistence, index update.
// Package harness is the run recorder. It drives both probes across a set
// of targets, strictly one target at a time, and persists exactly one run.
//
// Sequential execution is deliberate: both probes contend for the same
// local network path to the targets under test, and comparable numbers
// require non-overlapping measurement windows.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hazyhaar/benchrun/observability"
	"github.com/hazyhaar/benchrun/probe"
	"github.com/hazyhaar/benchrun/registry"
	"github.com/hazyhaar/benchrun/report"
	"github.com/hazyhaar/benchrun/runstore"
)

// BrowserProber produces page timing for one target URL. Implementations
// capture their failures inside the result; a panic is recorded by the
// harness as that target's browser-phase error.
type BrowserProber interface {
	Probe(ctx context.Context, target, url, screenshotPath string) *probe.BrowserResult
}

// LoadProber runs the fixed load profile for one target URL.
type LoadProber interface {
	Probe(ctx context.Context, target, url, metricsPath string) *probe.LoadResult
}

// Harness records benchmark runs.
type Harness struct {
	store   *runstore.Store
	browser BrowserProber
	load    LoadProber
	events  *observability.Recorder
	logger  *slog.Logger
}

// New creates a Harness. events may be nil to disable event recording.
func New(store *runstore.Store, browser BrowserProber, load LoadProber,
	events *observability.Recorder, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{
		store:   store,
		browser: browser,
		load:    load,
		events:  events,
		logger:  logger,
	}
}

// Run produces exactly one persisted run for the given targets. Individual
// probe failures are captured in the run; only persistence failures after
// the target loop are fatal. The index entry is appended last, so the
// index never references a partial run.
func (h *Harness) Run(ctx context.Context, targets []registry.Target) (*runstore.Run, error) {
	start := time.Now().UTC()
	runID, err := h.store.CreateRun(start)
	if err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}
	h.logger.Info("harness: run started", "run_id", runID, "targets", len(targets))

	run := &runstore.Run{RunID: runID, Timestamp: start}

	for _, target := range targets {
		rec := h.probeTarget(ctx, runID, target)
		run.Targets = append(run.Targets, rec)

		if err := h.store.SaveTargetRecord(runID, rec); err != nil {
			// The combined record still carries this target; keep going.
			h.logger.Warn("harness: save target record failed",
				"target", target.Key, "error", err)
		}
	}

	if err := h.persist(run); err != nil {
		return nil, err
	}

	h.events.Record(ctx, observability.Event{
		RunID:      runID,
		Phase:      observability.PhaseRun,
		Status:     "ok",
		DurationMS: time.Since(start).Milliseconds(),
	})
	h.logger.Info("harness: run complete", "run_id", runID)
	return run, nil
}

// probeTarget runs the browser phase then the load phase for one target.
// Neither phase can abort the run.
func (h *Harness) probeTarget(ctx context.Context, runID string, target registry.Target) runstore.TargetRecord {
	dir := h.store.RunDir(runID)
	h.logger.Info("harness: probing target", "target", target.Key, "url", target.URL)

	browserStart := time.Now()
	browserRes := h.browserPhase(ctx, target, filepath.Join(dir, target.Key+".png"))
	h.recordPhase(ctx, runID, target.Key, observability.PhaseBrowser,
		browserStatus(browserRes), browserRes.Err, time.Since(browserStart))

	loadStart := time.Now()
	loadRes := h.load.Probe(ctx, target.Key, target.URL,
		filepath.Join(dir, target.Key+"-k6.json"))
	h.recordPhase(ctx, runID, target.Key, observability.PhaseLoad,
		string(loadRes.Status), loadRes.Err, time.Since(loadStart))

	return runstore.TargetRecord{
		Target:  target.Key,
		URL:     target.URL,
		Browser: browserRes,
		Load:    loadRes,
	}
}

// browserPhase invokes the browser probe and converts a panic into a
// captured error on the result. A panicking probe is fatal for this
// target's browser phase only, never for the run.
func (h *Harness) browserPhase(ctx context.Context, target registry.Target, screenshotPath string) (res *probe.BrowserResult) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("harness: browser probe panicked",
				"target", target.Key, "panic", r)
			res = &probe.BrowserResult{
				Target:    target.Key,
				URL:       target.URL,
				Timestamp: time.Now().UTC(),
				Err:       fmt.Sprintf("browser probe panic: %v", r),
			}
		}
	}()
	return h.browser.Probe(ctx, target.Key, target.URL, screenshotPath)
}

// persist writes the combined record, summary, latest pointer, and index
// entry, in that order.
func (h *Harness) persist(run *runstore.Run) error {
	if err := h.store.SaveRun(run); err != nil {
		return fmt.Errorf("harness: %w", err)
	}

	markdown := report.RenderRunMarkdown(run)
	if err := h.store.WriteSummary(run.RunID, markdown); err != nil {
		return fmt.Errorf("harness: %w", err)
	}
	if err := h.store.WriteLatest(run, markdown); err != nil {
		return fmt.Errorf("harness: %w", err)
	}

	keys := make([]string, 0, len(run.Targets))
	for _, rec := range run.Targets {
		keys = append(keys, rec.Target)
	}
	entry := runstore.IndexEntry{
		RunID:     run.RunID,
		Timestamp: run.Timestamp,
		Targets:   keys,
	}
	if err := h.store.AppendIndex(entry); err != nil {
		return fmt.Errorf("harness: %w", err)
	}
	return nil
}

func (h *Harness) recordPhase(ctx context.Context, runID, target, phase, status, detail string, d time.Duration) {
	h.events.Record(ctx, observability.Event{
		RunID:      runID,
		Target:     target,
		Phase:      phase,
		Status:     status,
		Detail:     detail,
		DurationMS: d.Milliseconds(),
	})
}

func browserStatus(res *probe.BrowserResult) string {
	if res.Err != "" {
		return "error"
	}
	return "ok"
}
