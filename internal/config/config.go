package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "bloodage.yaml"

// ErrNoBirthdate is returned when an operation needs the birthdate and none
// was configured.
var ErrNoBirthdate = errors.New("birthdate not configured (set birthdate in bloodage.yaml, BLOODAGE_BIRTHDATE or --birthdate)")

// Config holds all bloodage configuration.
type Config struct {
	// Birthdate in YYYY-MM-DD form, used to derive the chronological age.
	Birthdate string `yaml:"birthdate"`

	// MaxReasonableAge drops implausible ages read back from the calculators.
	MaxReasonableAge float64 `yaml:"max_reasonable_age"`

	Files   FilesConfig   `yaml:"files"`
	Browser BrowserConfig `yaml:"browser"`
	Logging LoggingConfig `yaml:"logging"`
}

// FilesConfig names the default input and output files.
type FilesConfig struct {
	Bloodwork     string `yaml:"bloodwork"`
	BortzURL      string `yaml:"bortz_url"`
	LevineURL     string `yaml:"levine_url"`
	BortzURLs     string `yaml:"bortz_urls"`
	LevineURLs    string `yaml:"levine_urls"`
	BortzResults  string `yaml:"bortz_results"`
	LevineResults string `yaml:"levine_results"`
	Chart         string `yaml:"chart"`
	LevineChart   string `yaml:"levine_chart"`
	CombinedChart string `yaml:"combined_chart"`
	Analysis      string `yaml:"analysis"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxReasonableAge: 150,

		Files: FilesConfig{
			Bloodwork:     "bloodwork.csv",
			BortzURL:      "output_url.txt",
			LevineURL:     "levine_url.txt",
			BortzURLs:     "batch_urls.json",
			LevineURLs:    "levine_batch_urls.json",
			BortzResults:  "age_history.csv",
			LevineResults: "levine_age_history.csv",
			Chart:         "age_trend.html",
			LevineChart:   "levine_age_trend.html",
			CombinedChart: "combined_age_trend.html",
			Analysis:      "debug_markers.txt",
		},

		Browser: BrowserConfig{
			Headless:          false,
			NavigationTimeout: "60s",
			ResultWait:        "10s",
			PollInterval:      "500ms",
			PageDelay:         "5s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BLOODAGE_BIRTHDATE"); v != "" {
		c.Birthdate = v
	}
	if v := os.Getenv("BLOODAGE_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Browser.Headless = b
		}
	}
	if v := os.Getenv("BLOODAGE_CHROME_BIN"); v != "" {
		c.Browser.Bin = v
	}
}

// BirthDate parses the configured birthdate.
func (c *Config) BirthDate() (time.Time, error) {
	if c.Birthdate == "" {
		return time.Time{}, ErrNoBirthdate
	}
	t, err := time.Parse("2006-01-02", c.Birthdate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birthdate %q (want YYYY-MM-DD): %w", c.Birthdate, err)
	}
	return t, nil
}

// Validate validates the configuration. An empty birthdate is accepted here
// and reported by BirthDate when a command needs it.
func (c *Config) Validate() error {
	if c.Birthdate != "" {
		if _, err := c.BirthDate(); err != nil {
			return err
		}
	}
	if c.MaxReasonableAge <= 0 {
		return fmt.Errorf("max_reasonable_age must be positive, got %v", c.MaxReasonableAge)
	}
	if err := c.Browser.validate(); err != nil {
		return err
	}
	return c.Logging.validate()
}
