// CLAUDE:SUMMARY Drives headless Chrome via Rod: launch, navigate with stealth, collect navigation timing, screenshot.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Browser probes a target URL with headless Chrome and reads the
// PerformanceNavigationTiming entry of the navigation. One Browser is
// shared across all targets of a run; pages are opened and closed per
// probe so measurements do not bleed into each other.
type Browser struct {
	cfg     BrowserConfig
	browser *rod.Browser
	lnch    *launcher.Launcher
	logger  *slog.Logger
}

// BrowserConfig configures the browser probe.
type BrowserConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// NavTimeout bounds a single navigation. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// NewBrowser creates a browser probe. Call Start before probing.
func NewBrowser(cfg BrowserConfig) *Browser {
	cfg.defaults()
	return &Browser{cfg: cfg, logger: cfg.Logger}
}

// Start launches Chrome (or connects to a remote instance).
func (b *Browser) Start(ctx context.Context) error {
	var wsURL string

	if b.cfg.RemoteURL != "" {
		wsURL = b.cfg.RemoteURL
		b.logger.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(true)
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.logger.Info("browser: launched local chrome", "url", wsURL)
	}

	br := rod.New().ControlURL(wsURL)
	if err := br.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}

	if err := br.IgnoreCertErrors(true); err != nil {
		b.logger.Warn("browser: ignore cert errors failed", "error", err)
	}

	b.browser = br
	return nil
}

// Close shuts down Chrome.
func (b *Browser) Close() {
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
}

// Probe navigates to url, measures page-load, DOM and network timing, and
// writes a screenshot to screenshotPath. It always returns a BrowserResult:
// failures are captured in the result, never thrown back to the caller.
func (b *Browser) Probe(ctx context.Context, target, url, screenshotPath string) *BrowserResult {
	res := &BrowserResult{
		Target:    target,
		URL:       url,
		Timestamp: time.Now().UTC(),
	}

	if b.browser == nil {
		res.Err = "browser not started"
		res.Tests = failedTests(res.Err)
		return res
	}

	page, err := stealth.Page(b.browser)
	if err != nil {
		res.Err = fmt.Sprintf("create page: %v", err)
		res.Tests = failedTests(res.Err)
		return res
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		res.Err = fmt.Sprintf("navigate: %v", err)
		res.Tests = failedTests(res.Err)
		return res
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.logger.Warn("browser: wait load timeout", "url", url, "error", err)
	}

	timing, err := readNavigationTiming(navCtx, page)
	if err != nil {
		res.Err = fmt.Sprintf("navigation timing: %v", err)
		res.Tests = failedTests(res.Err)
	} else {
		res.Tests = timingTests(timing)
	}

	if screenshotPath != "" {
		if err := b.screenshot(navCtx, page, screenshotPath); err != nil {
			b.logger.Warn("browser: screenshot failed", "url", url, "error", err)
		} else {
			res.ScreenshotPath = screenshotPath
		}
	}

	return res
}

type navTiming struct {
	duration         float64
	domContentLoaded float64
	domInteractive   float64
	loadComplete     float64
	ttfb             float64
	dns              float64
	tcp              float64
	download         float64
}

func readNavigationTiming(ctx context.Context, page *rod.Page) (*navTiming, error) {
	res, err := page.Context(ctx).Eval(`() => {
		const nav = performance.getEntriesByType('navigation')[0];
		if (!nav) return null;
		return {
			duration: nav.duration,
			domContentLoaded: nav.domContentLoadedEventEnd - nav.startTime,
			domInteractive: nav.domInteractive - nav.startTime,
			loadComplete: nav.loadEventEnd - nav.startTime,
			ttfb: nav.responseStart - nav.requestStart,
			dns: nav.domainLookupEnd - nav.domainLookupStart,
			tcp: nav.connectEnd - nav.connectStart,
			download: nav.responseEnd - nav.responseStart,
		};
	}`)
	if err != nil {
		return nil, err
	}
	if res.Value.Nil() {
		return nil, fmt.Errorf("no PerformanceNavigationTiming entry")
	}

	v := res.Value
	return &navTiming{
		duration:         v.Get("duration").Num(),
		domContentLoaded: v.Get("domContentLoaded").Num(),
		domInteractive:   v.Get("domInteractive").Num(),
		loadComplete:     v.Get("loadComplete").Num(),
		ttfb:             v.Get("ttfb").Num(),
		dns:              v.Get("dns").Num(),
		tcp:              v.Get("tcp").Num(),
		download:         v.Get("download").Num(),
	}, nil
}

func (b *Browser) screenshot(ctx context.Context, page *rod.Page, path string) error {
	data, err := page.Context(ctx).Screenshot(true, nil)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func timingTests(t *navTiming) []Test {
	return []Test{
		{
			Name:    TestPageLoad,
			Success: true,
			Metrics: map[string]float64{MetricPageLoad: t.duration},
		},
		{
			Name:    TestDOMTiming,
			Success: true,
			Metrics: map[string]float64{
				MetricDOMContentLoaded: t.domContentLoaded,
				MetricDOMInteractive:   t.domInteractive,
				MetricLoadComplete:     t.loadComplete,
			},
		},
		{
			Name:    TestNetworkTiming,
			Success: true,
			Metrics: map[string]float64{
				MetricTTFB:     t.ttfb,
				MetricDNS:      t.dns,
				MetricTCP:      t.tcp,
				MetricDownload: t.download,
			},
		},
	}
}

// failedTests produces the synthetic failed entries for a probe whose
// navigation or timing collection broke before any measurement existed.
func failedTests(reason string) []Test {
	return []Test{
		{Name: TestPageLoad, Err: reason},
		{Name: TestDOMTiming, Err: reason},
		{Name: TestNetworkTiming, Err: reason},
	}
}
