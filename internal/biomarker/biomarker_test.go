package biomarker

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryMarkerHasAnAlias(t *testing.T) {
	for _, m := range Markers() {
		assert.NotEmpty(t, Aliases(m), "marker %s has no alias", m)
		assert.True(t, m.Valid())
	}
}

func TestResolveAliasVariants(t *testing.T) {
	for _, m := range Markers() {
		for _, alias := range Aliases(m) {
			variants := []string{
				alias,
				strings.ToLower(alias),
				strings.ToUpper(alias),
				"  " + alias + "\t",
			}
			for _, v := range variants {
				got, ok := Resolve(v)
				require.True(t, ok, "alias %q not recognised", v)
				assert.Equal(t, m, got, "alias %q", v)
			}
		}
	}
}

func TestResolvePunctuationVariants(t *testing.T) {
	a, ok := Resolve("hs-CRP")
	require.True(t, ok)
	b, ok := Resolve("hsCRP")
	require.True(t, ok)
	assert.Equal(t, HsCRP, a)
	assert.Equal(t, a, b)
}

func TestResolveCollapsesInnerWhitespace(t *testing.T) {
	m, ok := Resolve("total   cholesterol")
	require.True(t, ok)
	assert.Equal(t, Cholesterol, m)
}

func TestResolveUnknown(t *testing.T) {
	for _, label := range []string{"", "Albumen", "Glucoze", "Vitamin D", "Ferritin"} {
		_, ok := Resolve(label)
		assert.False(t, ok, "label %q should not resolve", label)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"4.5", 4.5, true},
		{"  12.3  ", 12.3, true},
		{"<5.0", 5, true},
		{">10", 10, true},
		{"=7.5", 7.5, true},
		{"< 100", 100, true},
		{"1.5e-1", 0.15, true},
		{"<=5.0", 0, false},
		{"", 0, false},
		{"<", 0, false},
		{"N/A", 0, false},
		{"pending", 0, false},
		{"data not available", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Sanitize(tt.raw)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestSanitizeComparatorMatchesPlainParse(t *testing.T) {
	parse := func(s string) (float64, bool) {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return v, err == nil
	}
	bodies := []string{"5", "0.04", " 100", "3.2 ", "abc", "=4", "-1"}
	for _, c := range []string{"<", ">", "="} {
		for _, body := range bodies {
			gotV, gotOK := Sanitize(c + body)
			wantV, wantOK := parse(body)
			assert.Equal(t, wantOK, gotOK, "%q", c+body)
			if wantOK {
				assert.Equal(t, wantV, gotV, "%q", c+body)
			}
		}
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "100", FormatValue(100))
	assert.Equal(t, "4.5", FormatValue(4.5))
	assert.Equal(t, "0.04", FormatValue(0.04))
}
