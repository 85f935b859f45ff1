// CLAUDE:SUMMARY Renders comparison reports as Markdown and console lines with fastest/slowest annotations.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/benchrun/compare"
	"github.com/hazyhaar/benchrun/probe"
)

// RenderComparisonMarkdown renders a comparison report as a Markdown
// document. Columns are already chronological; this function only formats.
func RenderComparisonMarkdown(rep *compare.Report) string {
	var b strings.Builder

	b.WriteString("# Run Comparison\n\n")
	b.WriteString("| Run | Timestamp |\n")
	b.WriteString("| --- | --- |\n")
	for _, run := range rep.Runs {
		fmt.Fprintf(&b, "| %s | %s |\n", run.RunID, run.Timestamp.Format(time.RFC3339))
	}
	b.WriteString("\n")

	for _, tc := range rep.Targets {
		fmt.Fprintf(&b, "## %s\n\n", tc.Target)

		if tc.Partial {
			b.WriteString("_not all runs include this target_\n\n")
			continue
		}

		b.WriteString("| Metric |")
		for _, run := range rep.Runs {
			fmt.Fprintf(&b, " %s |", run.RunID)
		}
		b.WriteString("\n|")
		for i := 0; i < len(rep.Runs)+1; i++ {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")

		for _, row := range tc.Rows {
			fmt.Fprintf(&b, "| %s |", row.Metric)
			for i, v := range row.Values {
				fmt.Fprintf(&b, " %s |", annotate(formatMillis(v), row, i))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")

		b.WriteString("**k6 results:** ")
		var cells []string
		for i, status := range tc.Availability {
			cells = append(cells,
				fmt.Sprintf("%s %s", rep.Runs[i].RunID, availabilityCell(status)))
		}
		b.WriteString(strings.Join(cells, " · "))
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderComparisonConsole renders a comparison report as console lines.
func RenderComparisonConsole(rep *compare.Report) []string {
	var lines []string

	var ids []string
	for _, run := range rep.Runs {
		ids = append(ids, run.RunID)
	}
	lines = append(lines, "comparing runs: "+strings.Join(ids, " → "))

	for _, tc := range rep.Targets {
		lines = append(lines, "  "+tc.Target)

		if tc.Partial {
			lines = append(lines, "    not all runs include this target")
			continue
		}

		for _, row := range tc.Rows {
			var cells []string
			for i, v := range row.Values {
				cells = append(cells, annotate(formatMillis(v), row, i))
			}
			lines = append(lines, fmt.Sprintf("    %-18s %s",
				row.Metric, strings.Join(cells, "  ")))
		}

		var cells []string
		for i, status := range tc.Availability {
			cells = append(cells,
				fmt.Sprintf("%s %s", rep.Runs[i].RunID, availabilityCell(status)))
		}
		lines = append(lines, "    k6: "+strings.Join(cells, "  "))
	}
	return lines
}

// annotate marks a value as fastest or slowest when its run attains the
// row's minimum or maximum. Ties across every run carry no marker.
func annotate(value string, row compare.MetricRow, idx int) string {
	for _, i := range row.Best {
		if i == idx {
			return value + " ⚡ fastest"
		}
	}
	for _, i := range row.Worst {
		if i == idx {
			return value + " 🐢 slowest"
		}
	}
	return value
}

// availabilityCell is the per-run three-state load column.
func availabilityCell(status probe.LoadStatus) string {
	switch status {
	case probe.LoadOK:
		return "✅ results"
	case probe.LoadError:
		return "⚠️ error"
	default:
		return "❌ no results"
	}
}
