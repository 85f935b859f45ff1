// CLAUDE:SUMMARY Renders single-run records as Markdown and console lines, with a three-way k6 section branch.
// Package report formats runs and comparison reports for humans. It is
// pure formatting: every decision beyond presence/absence of data was
// already made by the harness or the comparison engine.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/benchrun/probe"
	"github.com/hazyhaar/benchrun/runstore"
)

// RenderRunMarkdown renders one run as a Markdown document.
func RenderRunMarkdown(run *runstore.Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Benchmark Run %s\n\n", run.RunID)
	fmt.Fprintf(&b, "Recorded: %s\n\n", run.Timestamp.Format(time.RFC3339))

	for _, rec := range run.Targets {
		fmt.Fprintf(&b, "## %s\n\n", rec.Target)
		fmt.Fprintf(&b, "URL: %s\n\n", rec.URL)

		writeBrowserMarkdown(&b, rec.Browser)
		writeLoadMarkdown(&b, rec.Load)

		if rec.Browser != nil && rec.Browser.ScreenshotPath != "" {
			fmt.Fprintf(&b, "Screenshot: `%s`\n\n", filepath.Base(rec.Browser.ScreenshotPath))
		}
	}
	return b.String()
}

func writeBrowserMarkdown(b *strings.Builder, res *probe.BrowserResult) {
	b.WriteString("### Browser\n\n")
	if res == nil {
		b.WriteString("no browser result recorded\n\n")
		return
	}
	if res.Err != "" {
		fmt.Fprintf(b, "⚠️ error: %s\n\n", res.Err)
	}

	b.WriteString("| Test | Status | Metrics |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, t := range res.Tests {
		fmt.Fprintf(b, "| %s | %s | %s |\n", t.Name, testStatus(t), metricsCell(t))
	}
	b.WriteString("\n")
}

// writeLoadMarkdown is the three-way branch: absent (tool not installed),
// errored, or succeeded.
func writeLoadMarkdown(b *strings.Builder, res *probe.LoadResult) {
	b.WriteString("### Load (k6)\n\n")
	switch {
	case res == nil || res.Status == probe.LoadSkipped:
		b.WriteString("skipped (not installed)\n\n")
	case res.Status == probe.LoadError:
		fmt.Fprintf(b, "⚠️ error: %s\n\n", res.Err)
	default:
		b.WriteString("| Requests | Kind |\n")
		b.WriteString("| --- | --- |\n")
		fmt.Fprintf(b, "| %d | %s |\n\n", res.Summary.TotalRequests, res.Summary.Kind)
	}
}

// RenderRunConsole renders one run as console lines, mirroring the
// Markdown content without the table syntax.
func RenderRunConsole(run *runstore.Run) []string {
	var lines []string
	lines = append(lines,
		fmt.Sprintf("run %s (%s)", run.RunID, run.Timestamp.Format(time.RFC3339)))

	for _, rec := range run.Targets {
		lines = append(lines, fmt.Sprintf("  %s  %s", rec.Target, rec.URL))

		if rec.Browser == nil {
			lines = append(lines, "    browser: no result recorded")
		} else {
			if rec.Browser.Err != "" {
				lines = append(lines, "    browser: error: "+rec.Browser.Err)
			}
			for _, t := range rec.Browser.Tests {
				lines = append(lines,
					fmt.Sprintf("    %-14s %s  %s", t.Name, testStatus(t), metricsCell(t)))
			}
		}

		switch {
		case rec.Load == nil || rec.Load.Status == probe.LoadSkipped:
			lines = append(lines, "    k6: skipped (not installed)")
		case rec.Load.Status == probe.LoadError:
			lines = append(lines, "    k6: error: "+rec.Load.Err)
		default:
			lines = append(lines, fmt.Sprintf("    k6: %d %s recorded",
				rec.Load.Summary.TotalRequests, rec.Load.Summary.Kind))
		}
	}
	return lines
}

func testStatus(t probe.Test) string {
	if t.Success {
		return "✅"
	}
	return "❌"
}

// metricsCell renders a test's metrics in canonical metric order, or its
// error when the test failed.
func metricsCell(t probe.Test) string {
	if !t.Success {
		return t.Err
	}

	order := []string{
		probe.MetricPageLoad,
		probe.MetricDOMContentLoaded,
		probe.MetricDOMInteractive,
		probe.MetricLoadComplete,
		probe.MetricTTFB,
		probe.MetricDNS,
		probe.MetricTCP,
		probe.MetricDownload,
	}

	var parts []string
	for _, name := range order {
		if v, ok := t.Metrics[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", name, formatMillis(v)))
		}
	}
	return strings.Join(parts, " ")
}

func formatMillis(v float64) string {
	return fmt.Sprintf("%.1fms", v)
}
