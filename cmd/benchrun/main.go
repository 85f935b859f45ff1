// CLAUDE:SUMMARY CLI entry point for benchrun — one-shot benchmark harness with run and compare modes.
// Command benchrun is the benchmarking harness.
//
// Usage:
//
//	benchrun run                      # benchmark all configured targets
//	benchrun run pyxis vega           # benchmark selected targets
//	benchrun compare                  # list recent runs
//	benchrun compare <id> <id> [...]  # compare two or more runs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/benchrun/compare"
	"github.com/hazyhaar/benchrun/harness"
	"github.com/hazyhaar/benchrun/observability"
	"github.com/hazyhaar/benchrun/probe"
	"github.com/hazyhaar/benchrun/registry"
	"github.com/hazyhaar/benchrun/report"
	"github.com/hazyhaar/benchrun/runstore"
)

func main() {
	configPath := flag.String("config", "benchrun.yaml", "path to target configuration")
	resultsDir := flag.String("results", "bench-results", "results root directory")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *resultsDir, flag.Args()); err != nil {
		logger.Error("benchrun: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, resultsDir string, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: benchrun [flags] run [target...] | compare [runID...]")
		os.Exit(1)
		return nil
	}

	switch args[0] {
	case "run":
		return runBenchmarks(ctx, logger, configPath, resultsDir, args[1:])
	case "compare":
		return runCompare(ctx, logger, resultsDir, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runBenchmarks(ctx context.Context, logger *slog.Logger, configPath, resultsDir string, names []string) error {
	cfg, err := registry.LoadFile(configPath)
	if err != nil {
		return err
	}

	targets, errs := cfg.Resolve(names)
	for _, err := range errs {
		// Unknown keys are diagnosed and skipped; the run proceeds.
		fmt.Fprintf(os.Stderr, "benchrun: %v\n", err)
	}
	if len(targets) == 0 {
		logger.Warn("benchrun: no valid targets, nothing to do")
		return nil
	}

	store := runstore.New(resultsDir, logger)
	events := openEvents(resultsDir, logger)

	browser := probe.NewBrowser(probe.BrowserConfig{Logger: logger})
	if err := browser.Start(ctx); err != nil {
		// The probe captures the missing browser per target; results still
		// record the failure instead of aborting the whole invocation.
		logger.Warn("benchrun: browser start failed", "error", err)
	}
	defer browser.Close()

	load := probe.NewLoadRunner(probe.LoadConfig{Logger: logger})

	h := harness.New(store, browser, load, events, logger)
	benchRun, err := h.Run(ctx, targets)
	if err != nil {
		return err
	}

	for _, line := range report.RenderRunConsole(benchRun) {
		fmt.Println(line)
	}
	fmt.Printf("\nresults: %s\n", store.RunDir(benchRun.RunID))
	return nil
}

func runCompare(ctx context.Context, logger *slog.Logger, resultsDir string, runIDs []string) error {
	store := runstore.New(resultsDir, logger)

	if len(runIDs) == 0 {
		return listRuns(store)
	}
	if len(runIDs) == 1 {
		return errors.New("need at least 2 runs to compare")
	}

	rep, err := compare.Compare(store, runIDs)
	if err != nil {
		return err
	}

	for _, line := range report.RenderComparisonConsole(rep) {
		fmt.Println(line)
	}

	markdown := report.RenderComparisonMarkdown(rep)
	if err := store.WriteComparison(markdown); err != nil {
		return err
	}
	fmt.Printf("\ncomparison: %s\n", filepath.Join(store.Root(), "COMPARISON.md"))

	openEvents(resultsDir, logger).Record(ctx, observability.Event{
		Phase:  observability.PhaseCompare,
		Status: "ok",
		Detail: fmt.Sprintf("%d runs", len(runIDs)),
	})
	return nil
}

// listRuns prints the most recent index entries. Informational mode, not
// an error: it exits 0.
func listRuns(store *runstore.Store) error {
	entries, err := store.LoadIndex()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	const show = 10
	fmt.Println("recent runs:")
	for i, e := range entries {
		if i == show {
			break
		}
		fmt.Printf("  %s  %s  targets: %s\n",
			e.RunID, e.Timestamp.Format(time.RFC3339), joinKeys(e.Targets))
	}
	if len(entries) > show {
		fmt.Printf("  … and %d older runs\n", len(entries)-show)
	}
	return nil
}

func joinKeys(keys []string) string {
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += k
	}
	return out
}

// openEvents opens the event database best-effort. A nil recorder is
// valid and records nothing.
func openEvents(resultsDir string, logger *slog.Logger) *observability.Recorder {
	db, err := observability.Open(filepath.Join(resultsDir, "events.db"))
	if err != nil {
		logger.Warn("benchrun: event database unavailable", "error", err)
		return nil
	}
	return observability.NewRecorder(db)
}
