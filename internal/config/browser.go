package config

import (
	"fmt"
	"strings"
	"time"
)

// BrowserConfig configures the automated age extraction.
type BrowserConfig struct {
	Headless bool   `yaml:"headless"`
	Bin      string `yaml:"bin"` // Chrome binary; empty lets the launcher find or download one
	// Launch holds extra Chrome flags, e.g. ["--no-sandbox", "--window-size=1280,900"].
	Launch []string `yaml:"launch,omitempty"`

	NavigationTimeout string `yaml:"navigation_timeout"`
	ResultWait        string `yaml:"result_wait"`   // how long to wait for the result box
	PollInterval      string `yaml:"poll_interval"` // how often to re-read the value
	PageDelay         string `yaml:"page_delay"`    // pause between manual record pages
}

// GetNavigationTimeout returns the page load timeout.
func (c BrowserConfig) GetNavigationTimeout() time.Duration {
	return parseDuration(c.NavigationTimeout, 60*time.Second)
}

// GetResultWait returns how long to wait for a calculator result.
func (c BrowserConfig) GetResultWait() time.Duration {
	return parseDuration(c.ResultWait, 10*time.Second)
}

// GetPollInterval returns the value polling interval.
func (c BrowserConfig) GetPollInterval() time.Duration {
	return parseDuration(c.PollInterval, 500*time.Millisecond)
}

// GetPageDelay returns the pause between pages in manual recording.
func (c BrowserConfig) GetPageDelay() time.Duration {
	return parseDuration(c.PageDelay, 5*time.Second)
}

func (c BrowserConfig) validate() error {
	for name, v := range map[string]string{
		"navigation_timeout": c.NavigationTimeout,
		"result_wait":        c.ResultWait,
		"poll_interval":      c.PollInterval,
		"page_delay":         c.PageDelay,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("invalid browser.%s: %q", name, v)
		}
	}
	for _, f := range c.Launch {
		if strings.TrimLeft(strings.TrimSpace(f), "-") == "" {
			return fmt.Errorf("invalid browser.launch flag: %q", f)
		}
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
