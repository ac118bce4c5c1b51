package biomarker

import (
	"sort"
	"strings"
)

// aliasTable lists the spellings seen in lab exports for each marker. Keys are
// matched after normalizeLabel, so case and surrounding whitespace do not
// matter, but punctuation does: every accepted punctuation variant is listed.
var aliasTable = map[Marker][]string{
	Age:            {"Age"},
	Albumin:        {"Albumin", "S-albumin"},
	ALP:            {"ALP", "S-ALP", "Alkaline Phosphatase"},
	Urea:           {"Urea", "S-urea", "BUN"},
	Cholesterol:    {"Cholesterol", "Total Cholesterol", "S-cholesterol"},
	Creatinine:     {"Creatinine", "S-creatinine"},
	CystatinC:      {"Cystatin C", "S-cystatin-C"},
	HbA1c:          {"HbA1c", "B-HbA1c"},
	HsCRP:          {"hsCRP", "hs-CRP", "S-hsCRP", "CRP"},
	GGT:            {"GGT", "S-GGT"},
	RBC:            {"RBC", "Red Blood Cell Count"},
	MCV:            {"MCV"},
	RDW:            {"RDW", "RDW (RDW-CV)", "RDW-SD", "RDW-CV"},
	MonocytesAbs:   {"MONOabs", "Absolute Monocytes", "Monocytes (Absolute)"},
	NeutrophilsAbs: {"NEUabs", "Absolute Neutrophils", "Neutrophils (Absolute)"},
	Lymphocytes:    {"LYM", "Lymphocytes (%)", "Lymphocytes"},
	ALT:            {"ALT", "S-ALT"},
	SHBG:           {"SHBG", "S-SHBG"},
	VitaminD: {
		"Vitamin D (25-OH)",
		"Vitamin D - 25(OH)D",
		"Vitamin D3 (25-OH D3)",
		"Vitamin D, 25-Hydroxy",
		"S-25-OH-D",
	},
	Glucose: {"Glucose", "S-glucose", "Glucose (Fasting)"},
	MCH:     {"MCH"},
	ApoA1:   {"ApoA1", "S-ApoA1", "Apolipoprotein A1"},
	WBC:     {"WBC", "White Blood Cell Count", "White Blood Cells", "Leukocytes"},
}

// lookup is the normalized alias -> marker index built from aliasTable.
var lookup = buildLookup(aliasTable)

func buildLookup(table map[Marker][]string) map[string]Marker {
	idx := make(map[string]Marker)
	for marker, aliases := range table {
		for _, alias := range aliases {
			key := normalizeLabel(alias)
			if prev, dup := idx[key]; dup && prev != marker {
				panic("biomarker: alias " + alias + " maps to both " + string(prev) + " and " + string(marker))
			}
			idx[key] = marker
		}
	}
	return idx
}

// normalizeLabel lowercases s, trims it and collapses inner whitespace runs.
func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// SameLabel reports whether a and b are the same label once case and
// whitespace are normalized.
func SameLabel(a, b string) bool {
	return normalizeLabel(a) == normalizeLabel(b)
}

// Resolve returns the canonical marker for a lab label. Unknown, misspelled or
// ambiguous labels report false; no fuzzy matching is attempted.
func Resolve(label string) (Marker, bool) {
	m, ok := lookup[normalizeLabel(label)]
	return m, ok
}

// Aliases returns the accepted spellings for m, sorted.
func Aliases(m Marker) []string {
	src := aliasTable[m]
	out := make([]string, len(src))
	copy(out, src)
	sort.Strings(out)
	return out
}
