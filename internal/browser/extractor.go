// Package browser drives a Chrome instance through the calculator pages and
// reads back the computed ages.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bloodage/internal/config"
	"bloodage/internal/history"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Notes written beside extracted ages.
const (
	NoteAutoExtracted = "Auto-extracted"
)

// Config controls browser launch and result detection.
type Config struct {
	Headless bool
	Bin      string
	// Launch holds extra Chrome flags such as --no-sandbox or --window-size=1280,900.
	Launch []string

	NavigationTimeout time.Duration
	ResultWait        time.Duration
	PollInterval      time.Duration

	ResultSelector string
	ValueSelector  string
	Placeholder    string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		NavigationTimeout: 60 * time.Second,
		ResultWait:        10 * time.Second,
		PollInterval:      500 * time.Millisecond,
		ResultSelector:    "[class*='bg-primary-100']",
		ValueSelector:     "span.text-4xl",
		Placeholder:       "00",
	}
}

// ConfigFrom maps the file configuration onto Config.
func ConfigFrom(bc config.BrowserConfig) Config {
	cfg := DefaultConfig()
	cfg.Headless = bc.Headless
	cfg.Bin = bc.Bin
	cfg.Launch = append([]string(nil), bc.Launch...)
	cfg.NavigationTimeout = bc.GetNavigationTimeout()
	cfg.ResultWait = bc.GetResultWait()
	cfg.PollInterval = bc.GetPollInterval()
	return cfg
}

// Extraction is the outcome of reading one calculator page. Age holds the
// number shown on the page or one of the history status values.
type Extraction struct {
	Age   string
	Notes string
}

// Found reports whether a usable age was read.
func (x Extraction) Found() bool {
	return IsAge(x.Age)
}

// IsAge reports whether s is a plain decimal number, as opposed to a status.
func IsAge(s string) bool {
	return isAge(s, "")
}

// Result converts x into a results row for date.
func (x Extraction) Result(date string) history.Result {
	return history.Result{Date: date, Age: x.Age, Notes: x.Notes}
}

// Extractor owns one browser and one reusable page.
type Extractor struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewExtractor creates an extractor. Start must be called before Extract.
func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Start launches Chrome, or reuses the running instance if it is healthy.
func (e *Extractor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		if _, err := e.browser.Version(); err == nil {
			return nil
		}
		e.logger.Warn("Stale browser connection detected, relaunching")
		_ = e.browser.Close()
		e.browser, e.page = nil, nil
	}

	l := withLaunchFlags(launcher.New().Headless(e.cfg.Headless), e.cfg.Launch)
	if e.cfg.Bin != "" {
		l = l.Bin(e.cfg.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		if e.cfg.Bin == "" && len(e.cfg.Launch) == 0 {
			return fmt.Errorf("launch chrome: %w", err)
		}
		// Retry with a plain launcher in case a custom flag or binary was rejected.
		alt, altErr := launcher.New().Headless(e.cfg.Headless).Launch()
		if altErr != nil {
			return fmt.Errorf("launch chrome: %w (fallback: %v)", err, altErr)
		}
		controlURL = alt
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("create page: %w", err)
	}

	e.browser = browser
	e.page = page
	e.logger.Debug("Browser started", zap.Bool("headless", e.cfg.Headless))
	return nil
}

// withLaunchFlags adds raw command-line flags such as --window-size=1280,900
// to l.
func withLaunchFlags(l *launcher.Launcher, raw []string) *launcher.Launcher {
	for _, f := range raw {
		name, val, hasVal := strings.Cut(strings.TrimLeft(strings.TrimSpace(f), "-"), "=")
		if name == "" {
			continue
		}
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// Shutdown closes the page and the browser.
func (e *Extractor) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.page != nil {
		_ = e.page.Close()
		e.page = nil
	}
	var err error
	if e.browser != nil {
		err = e.browser.Close()
		e.browser = nil
	}
	return err
}

// Extract loads url and waits for the calculator to show an age. Failures are
// reported in the returned Extraction rather than as errors so a batch can
// carry on with the next page.
func (e *Extractor) Extract(ctx context.Context, url string) Extraction {
	page, err := e.open(ctx, url)
	if err != nil {
		return Extraction{Age: history.StatusError, Notes: err.Error()}
	}

	// Each wait gets its own ResultWait budget. Elements inherit the context
	// of the page or element they were found from, so both are re-bound to
	// ctx before the next phase.
	container, err := page.Timeout(e.cfg.ResultWait).Element(e.cfg.ResultSelector)
	if err != nil {
		return waitFailed(err)
	}
	container = container.Context(ctx)

	span, err := container.Timeout(e.cfg.ResultWait).Element(e.cfg.ValueSelector)
	if err != nil {
		return waitFailed(err)
	}
	span = span.Context(ctx)

	return e.pollValue(ctx, span.Text)
}

// pollValue re-reads the value until it shows an age. It gives up after
// ResultWait and reports the value as needing verification.
func (e *Extractor) pollValue(ctx context.Context, read func() (string, error)) Extraction {
	interval := e.cfg.PollInterval
	if interval <= 0 {
		interval = DefaultConfig().PollInterval
	}
	attempts := int(e.cfg.ResultWait / interval)
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err := sleep(ctx, interval); err != nil {
			return waitFailed(err)
		}
		text, err := read()
		if err != nil {
			return waitFailed(err)
		}
		if v := strings.TrimSpace(text); isAge(v, e.cfg.Placeholder) {
			return Extraction{Age: v, Notes: NoteAutoExtracted}
		}
	}
	return Extraction{Age: history.StatusVerify, Notes: NoteAutoExtracted}
}

// waitFailed maps an error from a wait step. Running out of time is a
// TIMEOUT; anything else is an ERROR carrying the message.
func waitFailed(err error) Extraction {
	if errors.Is(err, context.DeadlineExceeded) {
		return Extraction{Age: history.StatusTimeout, Notes: NoteAutoExtracted}
	}
	return Extraction{Age: history.StatusError, Notes: err.Error()}
}

// PageHTML loads url, waits for wait and returns the rendered document.
func (e *Extractor) PageHTML(ctx context.Context, url string, wait time.Duration) (string, error) {
	page, err := e.open(ctx, url)
	if err != nil {
		return "", err
	}
	if err := sleep(ctx, wait); err != nil {
		return "", err
	}
	return page.HTML()
}

// open navigates the shared page to url. The page goes through about:blank
// first because consecutive calculator URLs differ only in the fragment,
// which would not trigger a reload.
func (e *Extractor) open(ctx context.Context, url string) (*rod.Page, error) {
	e.mu.Lock()
	page := e.page
	e.mu.Unlock()
	if page == nil {
		return nil, errors.New("browser not started")
	}

	p := page.Context(ctx)
	if err := p.Navigate("about:blank"); err != nil {
		return nil, fmt.Errorf("reset page: %w", err)
	}
	if err := p.Timeout(e.cfg.NavigationTimeout).Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	return p, nil
}

// isAge reports whether s is a plain decimal number other than placeholder.
func isAge(s, placeholder string) bool {
	if s == "" || (placeholder != "" && s == placeholder) {
		return false
	}
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
