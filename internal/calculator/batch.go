package calculator

import (
	"fmt"
	"strings"
	"time"

	"bloodage/internal/biomarker"
	"bloodage/internal/bloodwork"
)

// Entry is one generated URL and the date its values are effective for.
type Entry struct {
	Date string `json:"date"`
	URL  string `json:"url"`
	// Markers counts the blood markers in the URL, age excluded.
	Markers int `json:"-"`
}

// Incomplete records a date skipped because required markers were missing.
type Incomplete struct {
	Date    string
	Missing []string
}

// BatchResult is the outcome of Batch.
type BatchResult struct {
	Entries    []Entry
	Incomplete []Incomplete
}

// ChronologicalAge returns the whole years elapsed between birth and on.
func ChronologicalAge(birth, on time.Time) int {
	years := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		years--
	}
	return years
}

// Snapshot builds a single URL from the latest values dated on or before
// cutoff, or from the latest values overall when cutoff is nil. The age is
// computed for the cutoff date, or for the newest reading used.
func (c Calculator) Snapshot(sheet *bloodwork.Sheet, birth time.Time, cutoff *time.Time) (Entry, error) {
	latest := sheet.Latest(cutoff, c.takesFromSheet)
	if len(latest) == 0 {
		return Entry{}, ErrNoData
	}

	var asOf time.Time
	if cutoff != nil {
		asOf = *cutoff
	} else {
		for _, r := range latest {
			if r.Date.After(asOf) {
				asOf = r.Date
			}
		}
	}
	return c.entry(latest, birth, asOf)
}

// Batch emits one URL per distinct measurement date in the export, including
// dates whose rows were all skipped. Each URL carries, for
// every marker, the latest value dated on or before that date, plus the age
// on that date. Dates a RequireAll calculator cannot use are reported in
// Incomplete instead.
func (c Calculator) Batch(sheet *bloodwork.Sheet, birth time.Time) BatchResult {
	var res BatchResult
	for _, d := range sheet.Dates() {
		d := d
		latest := sheet.Latest(&d, c.takesFromSheet)
		if len(latest) == 0 {
			// Only readings the calculator does not take were measured so far.
			continue
		}
		e, err := c.entry(latest, birth, d)
		if err != nil {
			res.Incomplete = append(res.Incomplete, Incomplete{
				Date:    d.Format(bloodwork.DateLayout),
				Missing: c.Missing(valuesOf(latest, birth, d)),
			})
			continue
		}
		res.Entries = append(res.Entries, e)
	}
	return res
}

// takesFromSheet reports whether r is read from the CSV. Age is always
// computed from the birthdate instead.
func (c Calculator) takesFromSheet(r bloodwork.Reading) bool {
	return r.Marker != biomarker.Age && c.Accepts(r.Marker, r.Label)
}

func (c Calculator) entry(latest map[biomarker.Marker]bloodwork.Reading, birth, asOf time.Time) (Entry, error) {
	values := valuesOf(latest, birth, asOf)
	if missing := c.Missing(values); len(missing) > 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return Entry{
		Date:    asOf.Format(bloodwork.DateLayout),
		URL:     c.Build(values),
		Markers: len(latest),
	}, nil
}

func valuesOf(latest map[biomarker.Marker]bloodwork.Reading, birth, asOf time.Time) []Value {
	values := make([]Value, 0, len(latest)+1)
	for m, r := range latest {
		values = append(values, Value{Marker: m, Value: r.Value, Unit: r.Unit})
	}
	values = append(values, Value{
		Marker: biomarker.Age,
		Value:  float64(ChronologicalAge(birth, asOf)),
		Unit:   "years",
	})
	return values
}
