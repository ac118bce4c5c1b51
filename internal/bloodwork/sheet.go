// Package bloodwork loads bloodwork CSV exports into validated readings.
//
// The export has one row per measurement with the columns Biomarker, Value,
// Unit and Measurement Date. Problems confined to a single row are recorded
// as Issues and the row is skipped; problems with the file itself are errors.
package bloodwork

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"bloodage/internal/biomarker"
)

// DateLayout is the ISO calendar date format used in every input and output file.
const DateLayout = "2006-01-02"

// Column names of the bloodwork export.
const (
	ColBiomarker = "Biomarker"
	ColValue     = "Value"
	ColUnit      = "Unit"
	ColDate      = "Measurement Date"
)

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Row is one untouched CSV record.
type Row struct {
	Line      int
	Biomarker string
	Value     string
	Unit      string
	Date      string
}

// Reading is a validated measurement of a canonical marker.
type Reading struct {
	Marker biomarker.Marker
	// Label is the biomarker name as written in the export.
	Label  string
	Raw    string
	Value  float64
	Unit   string
	Date   time.Time
	Line   int
}

// IssueKind classifies a skipped row.
type IssueKind string

const (
	IssueUnknownMarker IssueKind = "unknown_marker"
	IssueInvalidValue  IssueKind = "invalid_value"
	IssueNegativeValue IssueKind = "negative_value"
	IssueInvalidDate   IssueKind = "invalid_date"
)

// Issue describes a row that was skipped.
type Issue struct {
	Line      int
	Kind      IssueKind
	Biomarker string
	Value     string
	Detail    string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s (%s=%q)", i.Line, i.Kind, i.Biomarker, i.Value)
}

// Sheet is the parsed content of one export.
type Sheet struct {
	Rows     []Row
	Readings []Reading
	Issues   []Issue
}

// Load reads and parses the CSV at path.
func Load(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bloodwork csv: %w", err)
	}
	defer f.Close()

	sheet, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sheet, nil
}

// Parse reads a bloodwork CSV from r.
func Parse(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: %w", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header, ColBiomarker, ColValue, ColUnit, ColDate)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row := Row{
			Line:      line,
			Biomarker: field(rec, cols[ColBiomarker]),
			Value:     field(rec, cols[ColValue]),
			Unit:      field(rec, cols[ColUnit]),
			Date:      field(rec, cols[ColDate]),
		}
		sheet.Rows = append(sheet.Rows, row)
		sheet.add(row)
	}
	return sheet, nil
}

func (s *Sheet) add(row Row) {
	issue := Issue{Line: row.Line, Biomarker: row.Biomarker, Value: row.Value}

	marker, ok := biomarker.Resolve(row.Biomarker)
	if !ok {
		issue.Kind = IssueUnknownMarker
		s.Issues = append(s.Issues, issue)
		return
	}
	value, ok := biomarker.Sanitize(row.Value)
	if !ok {
		issue.Kind = IssueInvalidValue
		s.Issues = append(s.Issues, issue)
		return
	}
	if value < 0 {
		issue.Kind = IssueNegativeValue
		s.Issues = append(s.Issues, issue)
		return
	}
	date, err := ParseDate(row.Date)
	if err != nil {
		issue.Kind = IssueInvalidDate
		issue.Detail = row.Date
		s.Issues = append(s.Issues, issue)
		return
	}
	s.Readings = append(s.Readings, Reading{
		Marker: marker,
		Label:  row.Biomarker,
		Raw:    row.Value,
		Value:  value,
		Unit:   row.Unit,
		Date:   date,
		Line:   row.Line,
	})
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// Dates returns the distinct measurement dates of all rows, ascending. A row
// counts even when its biomarker or value was skipped; only unparseable dates
// are left out.
func (s *Sheet) Dates() []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, row := range s.Rows {
		d, err := ParseDate(row.Date)
		if err != nil || seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Latest picks, for every marker, the most recent reading accepted by keep
// and dated on or before asOf. A nil asOf accepts every date and a nil keep
// accepts every reading. When two readings share a date the first row wins.
func (s *Sheet) Latest(asOf *time.Time, keep func(Reading) bool) map[biomarker.Marker]Reading {
	out := make(map[biomarker.Marker]Reading)
	for _, r := range s.Readings {
		if keep != nil && !keep(r) {
			continue
		}
		if asOf != nil && r.Date.After(*asOf) {
			continue
		}
		if prev, ok := out[r.Marker]; ok && !r.Date.After(prev.Date) {
			continue
		}
		out[r.Marker] = r
	}
	return out
}

func indexColumns(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
