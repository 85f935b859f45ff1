// CLAUDE:SUMMARY Runs the k6 load-testing binary against a target and counts http_reqs points from its NDJSON output.
package probe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// k6 script template. The target URL is injected as a JS string literal.
const loadScript = `import http from 'k6/http';
export default function () {
	http.get(%q);
}
`

// LoadRunner probes a target URL with the k6 binary. The binary is looked
// up once at construction; when it is absent every probe reports
// LoadSkipped instead of failing.
type LoadRunner struct {
	cfg LoadConfig
	bin string // resolved k6 path, empty when not installed
	log *slog.Logger
}

// LoadConfig configures the fixed load profile.
type LoadConfig struct {
	// VUs is the number of virtual users. Default: 10.
	VUs int

	// Duration is the length of the load run. Default: 15s.
	Duration time.Duration

	Logger *slog.Logger
}

func (c *LoadConfig) defaults() {
	if c.VUs <= 0 {
		c.VUs = 10
	}
	if c.Duration <= 0 {
		c.Duration = 15 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// NewLoadRunner creates a load probe, resolving the k6 binary from PATH.
func NewLoadRunner(cfg LoadConfig) *LoadRunner {
	cfg.defaults()
	bin, err := exec.LookPath("k6")
	if err != nil {
		cfg.Logger.Info("load: k6 not found, load probes will be skipped")
		bin = ""
	}
	return &LoadRunner{cfg: cfg, bin: bin, log: cfg.Logger}
}

// Probe runs the fixed load profile against url, streaming point metrics
// to metricsPath. It returns LoadSkipped when k6 is not installed and
// LoadError when k6 exits non-zero; neither aborts the caller's run.
func (l *LoadRunner) Probe(ctx context.Context, target, url, metricsPath string) *LoadResult {
	res := &LoadResult{
		Target:    target,
		URL:       url,
		Timestamp: time.Now().UTC(),
	}

	if l.bin == "" {
		res.Status = LoadSkipped
		return res
	}

	cmd := exec.CommandContext(ctx, l.bin, "run",
		"--vus", fmt.Sprint(l.cfg.VUs),
		"--duration", l.cfg.Duration.String(),
		"--out", "json="+metricsPath,
		"--quiet",
		"-")
	cmd.Stdin = strings.NewReader(fmt.Sprintf(loadScript, url))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	l.log.Info("load: running k6", "target", target, "vus", l.cfg.VUs, "duration", l.cfg.Duration)
	if err := cmd.Run(); err != nil {
		res.Status = LoadError
		res.Err = fmt.Sprintf("k6: %v: %s", err, lastLine(stderr.String()))
		return res
	}

	res.Status = LoadOK
	res.MetricsPath = metricsPath

	summary, err := summarizeMetrics(metricsPath)
	if err != nil {
		// A broken artifact degrades the summary, never the run.
		l.log.Warn("load: metrics summary failed", "target", target, "error", err)
		summary = LoadSummary{Kind: "http_reqs"}
	}
	res.Summary = summary
	return res
}

// summarizeMetrics counts http_reqs points in a k6 NDJSON metrics file.
// Malformed lines are dropped; valid lines still contribute to the count.
func summarizeMetrics(path string) (LoadSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("load: open metrics: %w", err)
	}
	defer f.Close()
	return countRequests(f), nil
}

func countRequests(r io.Reader) LoadSummary {
	var point struct {
		Type   string `json:"type"`
		Metric string `json:"metric"`
	}

	total := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &point); err != nil {
			continue
		}
		if point.Type == "Point" && point.Metric == "http_reqs" {
			total++
		}
	}

	return LoadSummary{TotalRequests: total, Kind: "http_reqs"}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
