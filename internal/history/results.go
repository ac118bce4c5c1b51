// Package history stores the ages read back from the calculators and joins
// them with the chronological age for charting.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Results CSV columns shared by both calculators.
const (
	ColDate  = "Measurement Date"
	ColNotes = "Notes"
)

// Status values written in place of an age.
const (
	StatusTimeout = "TIMEOUT"
	StatusError   = "ERROR"
	StatusVerify  = "00 (needs verification)"
)

// ErrNoData is returned when a results file holds no usable ages.
var ErrNoData = errors.New("no valid age data")

// Result is one row of a results file. Age holds the raw text read from the
// page, or a status such as TIMEOUT.
type Result struct {
	Date  string
	Age   string
	Notes string
}

// LoadResults reads a results file whose age column is named column. A
// missing file yields no results.
func LoadResults(path, column string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	records, cols, err := readTable(f, ColDate, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	notes, hasNotes := cols[ColNotes]

	out := make([]Result, 0, len(records))
	for _, rec := range records {
		r := Result{Date: cell(rec, cols[ColDate]), Age: cell(rec, cols[column])}
		if hasNotes {
			r.Notes = cell(rec, notes)
		}
		if r.Date == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// SaveResults writes results sorted by date.
func SaveResults(path, column string, results []Result) error {
	sorted := append([]Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}

	if err := writeResults(csv.NewWriter(f), column, sorted); err != nil {
		f.Close()
		return fmt.Errorf("write results: %w", err)
	}
	return f.Close()
}

func writeResults(w *csv.Writer, column string, results []Result) error {
	if err := w.Write([]string{ColDate, column, ColNotes}); err != nil {
		return err
	}
	for _, r := range results {
		if err := w.Write([]string{r.Date, r.Age, r.Notes}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Merge combines existing and fresh results by date. Fresh rows replace
// existing ones for the same date; the result is sorted by date.
func Merge(existing, fresh []Result) []Result {
	byDate := make(map[string]Result, len(existing)+len(fresh))
	for _, r := range existing {
		byDate[r.Date] = r
	}
	for _, r := range fresh {
		byDate[r.Date] = r
	}
	out := make([]Result, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Dates returns the set of dates present in results.
func Dates(results []Result) map[string]bool {
	set := make(map[string]bool, len(results))
	for _, r := range results {
		set[r.Date] = true
	}
	return set
}

// readTable reads a CSV with a header row and checks for required columns.
func readTable(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty file: %w", ErrNoData)
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return records, cols, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
