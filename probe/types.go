// CLAUDE:SUMMARY Defines tagged result types for browser and load probes: tests, metrics, and the ok/skipped/error load states.
// Package probe runs the two external measurement tools against a target
// URL: headless Chrome (via Rod) for page timing and k6 for load testing.
//
// Both probes capture their failures inside the result instead of returning
// an error. The orchestrator treats every probe invocation as "call, wait,
// get a result" with no retries.
package probe

import "time"

// Canonical metric names. Test metric maps are keyed by these so that
// results from different runs align without translation.
const (
	MetricPageLoad         = "pageLoad"
	MetricDOMContentLoaded = "domContentLoaded"
	MetricDOMInteractive   = "domInteractive"
	MetricLoadComplete     = "loadComplete"
	MetricTTFB             = "ttfb"
	MetricDNS              = "dns"
	MetricTCP              = "tcp"
	MetricDownload         = "download"
)

// Test names produced by the browser probe, in emission order.
const (
	TestPageLoad      = "pageLoad"
	TestDOMTiming     = "domTiming"
	TestNetworkTiming = "networkTiming"
)

// Test is one named measurement from the browser probe. Metrics is keyed by
// the canonical metric names above; a failed test carries no metrics.
type Test struct {
	Name    string             `json:"name"`
	Success bool               `json:"success"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Err     string             `json:"error,omitempty"`
}

// BrowserResult is the outcome of one browser probe invocation. Probe
// failures are captured in Err plus a synthetic failed Test; the probe
// itself never returns a Go error for in-page problems.
type BrowserResult struct {
	Target         string    `json:"target"`
	URL            string    `json:"url"`
	Timestamp      time.Time `json:"timestamp"`
	Tests          []Test    `json:"tests"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	Err            string    `json:"error,omitempty"`
}

// Metric looks up a canonical metric across all successful tests.
func (r *BrowserResult) Metric(name string) (float64, bool) {
	for _, t := range r.Tests {
		if !t.Success {
			continue
		}
		if v, ok := t.Metrics[name]; ok {
			return v, true
		}
	}
	return 0, false
}

// LoadStatus is the explicit three-state outcome of a load probe.
type LoadStatus string

const (
	// LoadOK means k6 ran and produced a metrics artifact.
	LoadOK LoadStatus = "ok"
	// LoadSkipped means the k6 binary was not found on the host. This is
	// a distinct state, not an error.
	LoadSkipped LoadStatus = "skipped"
	// LoadError means k6 was found but the run failed.
	LoadError LoadStatus = "error"
)

// LoadSummary is a coarse description of the recorded load points.
type LoadSummary struct {
	TotalRequests int    `json:"total_requests"`
	Kind          string `json:"kind"`
}

// LoadResult is the outcome of one load probe invocation.
type LoadResult struct {
	Target      string      `json:"target"`
	URL         string      `json:"url"`
	Timestamp   time.Time   `json:"timestamp"`
	Status      LoadStatus  `json:"status"`
	MetricsPath string      `json:"metrics_path,omitempty"`
	Summary     LoadSummary `json:"summary"`
	Err         string      `json:"error,omitempty"`
}

// HasResults reports whether the load probe produced usable results,
// i.e. it ran and did not capture an error.
func (r *LoadResult) HasResults() bool {
	return r != nil && r.Status == LoadOK
}
