// Package calculator builds query-string URLs for the online biological-age
// calculators from bloodwork readings.
package calculator

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"bloodage/internal/biomarker"
)

var (
	// ErrNoData means no usable reading was found for the requested date.
	ErrNoData = errors.New("no valid biomarkers")
	// ErrIncomplete means a calculator that needs every marker is missing some.
	ErrIncomplete = errors.New("missing required biomarkers")
	// ErrUnknownCalculator is returned by Lookup.
	ErrUnknownCalculator = errors.New("unknown calculator")
)

// Calculator describes one external calculator page.
type Calculator struct {
	Name    string
	BaseURL string
	// Params maps a canonical marker to the calculator's query parameter id.
	Params map[biomarker.Marker]string
	// Rejects lists labels that resolve to a supported marker but measure
	// something the calculator was not fitted on, such as plain CRP for hsCRP.
	Rejects []string
	// WithUnits encodes values as value_unit instead of a bare value.
	WithUnits bool
	// RequireAll rejects dates where any parameter is missing.
	RequireAll bool
	// AgeColumn is the results CSV column holding the age read back from the page.
	AgeColumn string
}

// Value is a marker value to place in a URL.
type Value struct {
	Marker biomarker.Marker
	Value  float64
	Unit   string
}

// Bortz is the Bortz Blood Age calculator.
var Bortz = Calculator{
	Name:    "Bortz",
	BaseURL: "https://www.longevity-tools.com/humanitys-bortz-blood-age#?",
	Params: map[biomarker.Marker]string{
		biomarker.Age:            "age",
		biomarker.Albumin:        "S-albumin",
		biomarker.ALP:            "S-ALP",
		biomarker.Urea:           "S-urea",
		biomarker.Cholesterol:    "S-cholesterol",
		biomarker.Creatinine:     "S-creatinine",
		biomarker.CystatinC:      "S-cystatin-C",
		biomarker.HbA1c:          "B-HbA1c",
		biomarker.HsCRP:          "S-hsCRP",
		biomarker.GGT:            "S-GGT",
		biomarker.RBC:            "RBC",
		biomarker.MCV:            "MCV",
		biomarker.RDW:            "RDW",
		biomarker.MonocytesAbs:   "MONOabs",
		biomarker.NeutrophilsAbs: "NEUabs",
		biomarker.Lymphocytes:    "LYM",
		biomarker.ALT:            "S-ALT",
		biomarker.SHBG:           "S-SHBG",
		biomarker.VitaminD:       "S-25-OH-D",
		biomarker.Glucose:        "S-glucose",
		biomarker.MCH:            "MCH",
		biomarker.ApoA1:          "S-ApoA1",
	},
	Rejects:   []string{"CRP", "Lymphocytes", "Alkaline Phosphatase"},
	WithUnits: true,
	AgeColumn: "Bortz Biological Age",
}

// Levine is the Levine PhenoAge calculator. It only produces a result when
// all nine blood markers and the age are present.
var Levine = Calculator{
	Name:    "Levine",
	BaseURL: "https://www.longevity-tools.com/levine-pheno-age#",
	Params: map[biomarker.Marker]string{
		biomarker.Age:         "age",
		biomarker.Albumin:     "S-albumin",
		biomarker.Creatinine:  "S-creatinine",
		biomarker.Glucose:     "S-glucose",
		biomarker.HsCRP:       "S-hsCRP",
		biomarker.Lymphocytes: "LYM",
		biomarker.MCV:         "MCV",
		biomarker.RDW:         "RDW",
		biomarker.ALP:         "S-ALP",
		biomarker.WBC:         "WBC",
	},
	RequireAll: true,
	AgeColumn:  "Levine Phenotypic Age",
}

// All lists the built-in calculators.
func All() []Calculator {
	return []Calculator{Bortz, Levine}
}

// Lookup finds a built-in calculator by case-insensitive name.
func Lookup(name string) (Calculator, error) {
	for _, c := range All() {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return Calculator{}, fmt.Errorf("%w: %q (want bortz or levine)", ErrUnknownCalculator, name)
}

// Supports reports whether the calculator takes m as a parameter.
func (c Calculator) Supports(m biomarker.Marker) bool {
	_, ok := c.Params[m]
	return ok
}

// Accepts reports whether the calculator takes a reading labelled label for m.
func (c Calculator) Accepts(m biomarker.Marker, label string) bool {
	if !c.Supports(m) {
		return false
	}
	for _, r := range c.Rejects {
		if biomarker.SameLabel(r, label) {
			return false
		}
	}
	return true
}

// Build renders the calculator URL for values. Parameters are sorted by id;
// markers the calculator does not take are ignored and absent ones are simply
// left out, which the page treats as unknown.
func (c Calculator) Build(values []Value) string {
	byID := make(map[string]string, len(values))
	for _, v := range values {
		id, ok := c.Params[v.Marker]
		if !ok {
			continue
		}
		byID[id] = c.encode(v)
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	params := make([]string, 0, len(ids))
	for _, id := range ids {
		params = append(params, id+"="+byID[id])
	}
	return c.BaseURL + strings.Join(params, "&")
}

func (c Calculator) encode(v Value) string {
	val := biomarker.FormatValue(v.Value)
	if !c.WithUnits {
		return val
	}
	// The Bortz page decodes the fragment twice, so a literal percent sign
	// is pre-encoded before the whole value_unit pair is escaped.
	unit := v.Unit
	if unit == "%" {
		unit = "%25"
	}
	return escapeComponent(val + "_" + unit)
}

// escapeComponent escapes everything outside the RFC 3986 unreserved set.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Missing lists the parameter ids a RequireAll calculator still needs.
func (c Calculator) Missing(values []Value) []string {
	if !c.RequireAll {
		return nil
	}
	have := make(map[biomarker.Marker]bool, len(values))
	for _, v := range values {
		have[v.Marker] = true
	}
	var missing []string
	for m, id := range c.Params {
		if !have[m] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
