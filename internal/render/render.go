// Package render turns age history into static HTML and PNG charts.
package render

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bloodage/internal/bloodwork"
	"bloodage/internal/history"
)

//go:embed templates/age_trend.html
var defaultSingle string

//go:embed templates/combined_age_trend.html
var defaultCombined string

// ErrNoPoints is returned when there is nothing to plot.
var ErrNoPoints = errors.New("no data points to render")

// Template placeholders. Each is replaced by a JSON array.
const (
	PlaceholderDates        = "{{DATES_JSON}}"
	PlaceholderAges         = "{{AGES_JSON}}"
	PlaceholderChronAges    = "{{CHRON_AGES_JSON}}"
	PlaceholderDeltas       = "{{DELTAS_JSON}}"
	PlaceholderBortzAges    = "{{BORTZ_BIO_AGES_JSON}}"
	PlaceholderBortzDeltas  = "{{BORTZ_DELTAS_JSON}}"
	PlaceholderLevineAges   = "{{LEVINE_PHENO_AGES_JSON}}"
	PlaceholderLevineDeltas = "{{LEVINE_DELTAS_JSON}}"
)

// Kind selects one of the built-in templates.
type Kind int

const (
	KindSingle Kind = iota
	KindCombined
)

// LoadTemplate returns the template at path, or the built-in template for
// kind when path is empty. An unreadable file is an error.
func LoadTemplate(path string, kind Kind) (string, error) {
	if path == "" {
		if kind == KindCombined {
			return defaultCombined, nil
		}
		return defaultSingle, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}

// Single fills a single-calculator template with points.
func Single(tmpl string, points []history.Point) (string, error) {
	if len(points) == 0 {
		return "", ErrNoPoints
	}
	dates := make([]string, len(points))
	ages := make([]float64, len(points))
	chron := make([]float64, len(points))
	deltas := make([]float64, len(points))
	for i, p := range points {
		dates[i] = p.Date.Format(bloodwork.DateLayout)
		ages[i] = p.Estimated
		chron[i] = p.Chronological
		deltas[i] = p.Delta
	}
	return fill(tmpl, map[string]any{
		PlaceholderDates:     dates,
		PlaceholderAges:      ages,
		PlaceholderChronAges: chron,
		PlaceholderDeltas:    deltas,
	})
}

// Combined fills the two-calculator template. Missing ages render as null.
func Combined(tmpl string, c history.Combined) (string, error) {
	if len(c.Dates) == 0 {
		return "", ErrNoPoints
	}
	dates := make([]string, len(c.Dates))
	for i, d := range c.Dates {
		dates[i] = d.Format(bloodwork.DateLayout)
	}
	return fill(tmpl, map[string]any{
		PlaceholderDates:        dates,
		PlaceholderChronAges:    c.Chronological,
		PlaceholderBortzAges:    c.Bortz,
		PlaceholderBortzDeltas:  c.BortzDelta,
		PlaceholderLevineAges:   c.Levine,
		PlaceholderLevineDeltas: c.LevineDelta,
	})
}

func fill(tmpl string, values map[string]any) (string, error) {
	pairs := make([]string, 0, 2*len(values))
	for placeholder, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", placeholder, err)
		}
		pairs = append(pairs, placeholder, string(data))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

// WriteFile writes rendered output, creating parent directories.
func WriteFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
