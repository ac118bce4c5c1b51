package bloodwork

import (
	"fmt"
	"sort"
	"strings"

	"bloodage/internal/biomarker"
)

// LabelStats summarises every value seen for one raw biomarker label.
type LabelStats struct {
	Label    string
	Marker   biomarker.Marker
	Resolved bool
	Values   []string // in file order, duplicates kept
	Unique   []string // first-seen order
}

// Report is a data-quality overview of an export.
type Report struct {
	Rows   int
	Labels []LabelStats
	Issues []Issue
}

// Analyze groups the raw rows of s by biomarker label.
func Analyze(s *Sheet) Report {
	byLabel := make(map[string]*LabelStats)
	for _, row := range s.Rows {
		st, ok := byLabel[row.Biomarker]
		if !ok {
			st = &LabelStats{Label: row.Biomarker}
			st.Marker, st.Resolved = biomarker.Resolve(row.Biomarker)
			byLabel[row.Biomarker] = st
		}
		st.Values = append(st.Values, row.Value)
		if !contains(st.Unique, row.Value) {
			st.Unique = append(st.Unique, row.Value)
		}
	}

	rep := Report{Rows: len(s.Rows), Issues: s.Issues}
	for _, st := range byLabel {
		rep.Labels = append(rep.Labels, *st)
	}
	sort.Slice(rep.Labels, func(i, j int) bool { return rep.Labels[i].Label < rep.Labels[j].Label })
	return rep
}

// Unresolved returns the labels that did not map to a marker.
func (r Report) Unresolved() []string {
	var out []string
	for _, l := range r.Labels {
		if !l.Resolved {
			out = append(out, l.Label)
		}
	}
	return out
}

// Markdown renders the report, listing up to samples unique values per label.
func (r Report) Markdown(samples int) string {
	var sb strings.Builder
	sb.WriteString("# Biomarker Analysis Report\n\n")
	fmt.Fprintf(&sb, "%d row(s), %d unique biomarker label(s), %d skipped row(s).\n\n",
		r.Rows, len(r.Labels), len(r.Issues))

	sb.WriteString("| Biomarker | Marker | Total | Unique | Samples |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, l := range r.Labels {
		marker := "_unrecognised_"
		if l.Resolved {
			marker = "`" + string(l.Marker) + "`"
		}
		sample := l.Unique
		if samples >= 0 && len(sample) > samples {
			sample = sample[:samples]
		}
		fmt.Fprintf(&sb, "| %s | %s | %d | %d | %s |\n",
			escapeCell(l.Label), marker, len(l.Values), len(l.Unique), escapeCell(strings.Join(sample, ", ")))
	}

	if len(r.Issues) > 0 {
		sb.WriteString("\n## Skipped rows\n\n")
		for _, is := range r.Issues {
			fmt.Fprintf(&sb, "- %s\n", escapeCell(is.String()))
		}
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
