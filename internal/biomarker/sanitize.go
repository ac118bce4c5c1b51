package biomarker

import (
	"math"
	"strconv"
	"strings"
)

// Sanitize parses a raw lab value. A single leading comparator (<, > or =) is
// dropped and the remainder must parse as a finite number, so "<5" yields 5.
// Placeholders such as "N/A" or "pending" report false.
func Sanitize(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s != "" && strings.ContainsRune("<>=", rune(s[0])) {
		s = strings.TrimSpace(s[1:])
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatValue renders v in the shortest decimal form that round-trips.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
