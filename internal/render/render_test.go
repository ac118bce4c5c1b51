package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bloodage/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDefaultTemplatesCarryPlaceholders(t *testing.T) {
	single, err := LoadTemplate("", KindSingle)
	require.NoError(t, err)
	for _, p := range []string{PlaceholderDates, PlaceholderAges, PlaceholderChronAges, PlaceholderDeltas} {
		assert.Contains(t, single, p)
	}

	combined, err := LoadTemplate("", KindCombined)
	require.NoError(t, err)
	for _, p := range []string{PlaceholderDates, PlaceholderBortzAges, PlaceholderBortzDeltas, PlaceholderLevineAges, PlaceholderLevineDeltas} {
		assert.Contains(t, combined, p)
	}
}

func TestLoadTemplateMissingFile(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.html"), KindSingle)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSingleSubstitutesJSON(t *testing.T) {
	tmpl := "d={{DATES_JSON}};a={{AGES_JSON}};c={{CHRON_AGES_JSON}};x={{DELTAS_JSON}}"
	out, err := Single(tmpl, []history.Point{
		{Date: day(2024, 1, 15), Estimated: 56.2, Chronological: 56, Delta: 0.2},
		{Date: day(2024, 6, 1), Estimated: 55, Chronological: 56, Delta: -1},
	})
	require.NoError(t, err)
	assert.Equal(t, `d=["2024-01-15","2024-06-01"];a=[56.2,55];c=[56,56];x=[0.2,-1]`, out)

	_, err = Single(tmpl, nil)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestCombinedRendersNulls(t *testing.T) {
	age, delta := 56.2, 0.2
	c := history.Combined{
		Dates:         []time.Time{day(2024, 1, 15), day(2024, 3, 1)},
		Chronological: []float64{56, 56},
		Bortz:         []*float64{&age, nil},
		BortzDelta:    []*float64{&delta, nil},
		Levine:        []*float64{nil, &age},
		LevineDelta:   []*float64{nil, &delta},
	}
	tmpl, err := LoadTemplate("", KindCombined)
	require.NoError(t, err)

	out, err := Combined(tmpl, c)
	require.NoError(t, err)
	assert.Contains(t, out, `const bortz = [56.2,null];`)
	assert.Contains(t, out, `const levineDeltas = [null,0.2];`)
	assert.NotContains(t, out, "{{")
}

func TestPNG(t *testing.T) {
	points := []history.Point{
		{Date: day(2023, 1, 15), Estimated: 57.1, Chronological: 55, Delta: 2.1},
		{Date: day(2024, 1, 15), Estimated: 56.2, Chronological: 56, Delta: 0.2},
	}
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, "Bortz", PointLines("Bortz biological age", points)...))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
}

func TestPNGSinglePointAndEmpty(t *testing.T) {
	age := 50.0
	c := history.Combined{
		Dates:         []time.Time{day(2024, 1, 15)},
		Chronological: []float64{56},
		Bortz:         []*float64{nil},
		BortzDelta:    []*float64{nil},
		Levine:        []*float64{&age},
		LevineDelta:   []*float64{&age},
	}
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, "Combined", CombinedLines(c)...))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	assert.ErrorIs(t, PNG(&bytes.Buffer{}, "empty"), ErrNoPoints)
}

func TestWriteFileCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "age_trend.html")
	require.NoError(t, WriteFile(path, []byte("<html></html>")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<html>"))
}
