package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloodage/cmd/bloodage/ui"
	"bloodage/internal/bloodwork"
	"bloodage/internal/calculator"
	"bloodage/internal/config"
	"bloodage/internal/logging"

	"go.uber.org/zap"
)

// appConfig returns the loaded config, or the defaults when a command runs
// without the root pre-run (as in tests).
func appConfig() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

func birthDate() (time.Time, error) {
	c := appConfig()
	if birthdate != "" {
		c.Birthdate = birthdate
	}
	return c.BirthDate()
}

// commandContext is cancelled on timeout, SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutOrDefault())
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

func timeoutOrDefault() time.Duration {
	if timeout <= 0 {
		return 2 * time.Hour
	}
	return timeout
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// Default file names per calculator.

func urlFile(c calculator.Calculator) string {
	if c.Name == calculator.Levine.Name {
		return appConfig().Files.LevineURL
	}
	return appConfig().Files.BortzURL
}

func batchFile(c calculator.Calculator) string {
	if c.Name == calculator.Levine.Name {
		return appConfig().Files.LevineURLs
	}
	return appConfig().Files.BortzURLs
}

func resultsFile(c calculator.Calculator) string {
	if c.Name == calculator.Levine.Name {
		return appConfig().Files.LevineResults
	}
	return appConfig().Files.BortzResults
}

func chartFile(c calculator.Calculator) string {
	if c.Name == calculator.Levine.Name {
		return appConfig().Files.LevineChart
	}
	return appConfig().Files.Chart
}

// loadSheet parses the bloodwork export and logs skipped rows.
func loadSheet(path string) (*bloodwork.Sheet, error) {
	sheet, err := bloodwork.Load(path)
	if err != nil {
		return nil, err
	}
	log := logging.CSV()
	for _, is := range sheet.Issues {
		log.Warn("Skipped row",
			zap.Int("line", is.Line),
			zap.String("kind", string(is.Kind)),
			zap.String("biomarker", is.Biomarker),
			zap.String("value", is.Value))
	}
	log.Debug("Loaded bloodwork",
		zap.String("path", path),
		zap.Int("rows", len(sheet.Rows)),
		zap.Int("readings", len(sheet.Readings)))
	return sheet, nil
}

func styles() ui.Styles {
	return ui.DefaultStyles()
}

func writeText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
