package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bloodage/cmd/bloodage/ui"
	"bloodage/internal/browser"
	"bloodage/internal/calculator"
	"bloodage/internal/config"
	"bloodage/internal/history"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const bloodworkCSV = `Biomarker,Value,Unit,Measurement Date
Albumin,4.5,g/dL,2024-01-15
Glucose,90,mg/dL,2024-01-15
Albumin,4.6,g/dL,2024-06-01
Ferritin,80,ng/mL,2024-06-01
`

// setup points every default file into a temp dir and clears flag state.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	c := config.DefaultConfig()
	c.Birthdate = "1980-03-10"
	f := &c.Files
	for _, p := range []*string{
		&f.Bloodwork, &f.BortzURL, &f.LevineURL, &f.BortzURLs, &f.LevineURLs,
		&f.BortzResults, &f.LevineResults, &f.Chart, &f.LevineChart, &f.CombinedChart, &f.Analysis,
	} {
		*p = filepath.Join(dir, *p)
	}
	require.NoError(t, os.WriteFile(f.Bloodwork, []byte(bloodworkCSV), 0o644))

	cfg = c
	logger = zap.NewNop()
	birthdate = ""
	timeout = time.Minute

	urlCalculator, urlDate, urlInput, urlOutput = "bortz", "", "", ""
	batchCalculator, batchInput, batchOutput = "bortz", "", ""
	updateCalculator, updateInput = "both", ""
	extractCalculator, extractInput, extractOutput = "bortz", "", ""
	extractWait, extractHeadless, extractIncremental = 0, false, false
	extractChromeFlags = nil
	recordCalculator, recordInput, recordOutput, recordDelay = "bortz", "", "", 0
	chartCalculator, chartInput, chartOutput, chartTemplate, chartPNG = "bortz", "", "", "", ""
	combinedBortz, combinedLevine, combinedOutput, combinedTemplate, combinedPNG = "", "", "", "", ""
	analyzeInput, analyzeOutput, analyzeSamples, analyzeRender = "", "", 5, false
	inspectCalculator, inspectInput, inspectWait = "bortz", "", 0

	t.Cleanup(func() { cfg = nil })
	return dir
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func writeEntries(t *testing.T, path string, entries ...calculator.Entry) {
	t.Helper()
	require.NoError(t, calculator.SaveEntries(path, entries))
}

func TestURLCommand(t *testing.T) {
	setup(t)
	urlDate = "2024-01-15"
	cmd, out := newCmd()

	require.NoError(t, runURL(cmd, nil))

	data, err := os.ReadFile(cfg.Files.BortzURL)
	require.NoError(t, err)
	url := strings.TrimSpace(string(data))
	assert.Equal(t,
		"https://www.longevity-tools.com/humanitys-bortz-blood-age#?S-albumin=4.5_g%2FdL&S-glucose=90_mg%2FdL&age=43_years",
		url)
	assert.Contains(t, out.String(), url)
}

func TestURLCommandBadDate(t *testing.T) {
	setup(t)
	urlDate = "yesterday"
	cmd, _ := newCmd()
	require.Error(t, runURL(cmd, nil))
}

func TestBatchCommand(t *testing.T) {
	setup(t)
	cmd, out := newCmd()

	require.NoError(t, runBatch(cmd, nil))

	entries, err := calculator.LoadEntries(cfg.Files.BortzURLs)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-01-15", entries[0].Date)
	assert.Equal(t, "2024-06-01", entries[1].Date)
	assert.Contains(t, entries[1].URL, "S-albumin=4.6_g%2FdL")
	assert.Contains(t, entries[1].URL, "S-glucose=90_mg%2FdL")
	assert.Contains(t, out.String(), "Wrote 2 URL(s)")
}

func TestBatchCommandLevineIncomplete(t *testing.T) {
	setup(t)
	batchCalculator = "levine"
	cmd, _ := newCmd()

	err := runBatch(cmd, nil)
	require.ErrorIs(t, err, calculator.ErrNoData)
	_, statErr := os.Stat(cfg.Files.LevineURLs)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUpdateCommandAppendsNewDates(t *testing.T) {
	setup(t)
	updateCalculator = "bortz"
	old := calculator.Entry{Date: "2024-01-15", URL: "kept"}
	writeEntries(t, cfg.Files.BortzURLs, old)
	cmd, out := newCmd()

	require.NoError(t, runUpdate(cmd, nil))

	entries, err := calculator.LoadEntries(cfg.Files.BortzURLs)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0].URL)
	assert.Equal(t, "2024-06-01", entries[1].Date)
	assert.Contains(t, out.String(), "Bortz")
}

type fakeSession struct {
	ages     map[string]string
	calls    []string
	shutdown bool
}

func (f *fakeSession) Extract(_ context.Context, url string) browser.Extraction {
	f.calls = append(f.calls, url)
	if age, ok := f.ages[url]; ok {
		return browser.Extraction{Age: age, Notes: browser.NoteAutoExtracted}
	}
	return browser.Extraction{Age: history.StatusTimeout, Notes: browser.NoteAutoExtracted}
}

func (f *fakeSession) PageHTML(_ context.Context, url string, _ time.Duration) (string, error) {
	f.calls = append(f.calls, url)
	return `<html><body><div id="result" class="card">Biological age: 41.2 years</div></body></html>`, nil
}

func (f *fakeSession) Shutdown() error {
	f.shutdown = true
	return nil
}

func useFakeSession(t *testing.T, s *fakeSession) {
	t.Helper()
	prevReader, prevPager, prevDelay := startReader, startPager, pageDelay
	startReader = func(context.Context, browser.Config) (ageSession, error) { return s, nil }
	startPager = func(context.Context, browser.Config) (pageSession, error) { return s, nil }
	pageDelay = 0
	t.Cleanup(func() {
		startReader, startPager, pageDelay = prevReader, prevPager, prevDelay
	})
}

func TestExtractCommand(t *testing.T) {
	setup(t)
	writeEntries(t, cfg.Files.BortzURLs,
		calculator.Entry{Date: "2024-01-15", URL: "u1"},
		calculator.Entry{Date: "2024-06-01", URL: "u2"},
	)
	session := &fakeSession{ages: map[string]string{"u1": "41.2"}}
	useFakeSession(t, session)
	cmd, out := newCmd()

	require.NoError(t, runExtract(cmd, nil))

	assert.True(t, session.shutdown)
	results, err := history.LoadResults(cfg.Files.BortzResults, calculator.Bortz.AgeColumn)
	require.NoError(t, err)
	assert.Equal(t, []history.Result{
		{Date: "2024-01-15", Age: "41.2", Notes: browser.NoteAutoExtracted},
		{Date: "2024-06-01", Age: history.StatusTimeout, Notes: browser.NoteAutoExtracted},
	}, results)
	assert.Contains(t, out.String(), "Extracted 1 of 2 age(s)")
}

func TestExtractCommandIncremental(t *testing.T) {
	setup(t)
	extractIncremental = true
	writeEntries(t, cfg.Files.BortzURLs,
		calculator.Entry{Date: "2024-01-15", URL: "u1"},
		calculator.Entry{Date: "2024-06-01", URL: "u2"},
		calculator.Entry{Date: "2024-09-01", URL: "u3"},
	)
	require.NoError(t, history.SaveResults(cfg.Files.BortzResults, calculator.Bortz.AgeColumn, []history.Result{
		{Date: "2024-01-15", Age: "40.0", Notes: "Manual entry"},
		{Date: "2024-06-01", Age: history.StatusTimeout, Notes: browser.NoteAutoExtracted},
	}))
	session := &fakeSession{ages: map[string]string{"u2": "41.0", "u3": "41.5"}}
	useFakeSession(t, session)
	cmd, _ := newCmd()

	require.NoError(t, runExtract(cmd, nil))

	assert.Equal(t, []string{"u2", "u3"}, session.calls)
	results, err := history.LoadResults(cfg.Files.BortzResults, calculator.Bortz.AgeColumn)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "40.0", results[0].Age)
	assert.Equal(t, "41.0", results[1].Age)
	assert.Equal(t, "41.5", results[2].Age)
}

func TestExtractCommandChromeFlags(t *testing.T) {
	setup(t)
	cfg.Browser.Launch = []string{"--lang=en"}
	extractChromeFlags = []string{"--no-sandbox"}
	writeEntries(t, cfg.Files.BortzURLs, calculator.Entry{Date: "2024-01-15", URL: "u1"})

	var got browser.Config
	prev := startReader
	startReader = func(_ context.Context, bcfg browser.Config) (ageSession, error) {
		got = bcfg
		return &fakeSession{ages: map[string]string{"u1": "40.1"}}, nil
	}
	t.Cleanup(func() { startReader = prev })
	cmd, _ := newCmd()

	require.NoError(t, runExtract(cmd, nil))
	assert.Equal(t, []string{"--lang=en", "--no-sandbox"}, got.Launch)
}

func TestExtractCommandNoEntries(t *testing.T) {
	setup(t)
	useFakeSession(t, &fakeSession{})
	cmd, _ := newCmd()
	require.Error(t, runExtract(cmd, nil))
}

func TestExtractCommandStartFailure(t *testing.T) {
	setup(t)
	writeEntries(t, cfg.Files.BortzURLs, calculator.Entry{Date: "2024-01-15", URL: "u1"})
	prev := startReader
	startReader = func(context.Context, browser.Config) (ageSession, error) {
		return nil, errors.New("no chrome")
	}
	t.Cleanup(func() { startReader = prev })
	cmd, _ := newCmd()

	err := runExtract(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chrome")
}

func TestRecordCommand(t *testing.T) {
	setup(t)
	writeEntries(t, cfg.Files.BortzURLs,
		calculator.Entry{Date: "2024-01-15", URL: "u1"},
		calculator.Entry{Date: "2024-06-01", URL: "u2"},
	)
	require.NoError(t, history.SaveResults(cfg.Files.BortzResults, calculator.Bortz.AgeColumn, []history.Result{
		{Date: "2023-12-01", Age: "39.9", Notes: "Manual entry"},
	}))

	prev := runProgram
	runProgram = func(m tea.Model) (tea.Model, error) {
		for _, answer := range []string{"42.5", "skip"} {
			m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(answer)})
			m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		}
		return m, nil
	}
	t.Cleanup(func() { runProgram = prev })
	cmd, out := newCmd()

	require.NoError(t, runRecord(cmd, nil))

	results, err := history.LoadResults(cfg.Files.BortzResults, calculator.Bortz.AgeColumn)
	require.NoError(t, err)
	assert.Equal(t, []history.Result{
		{Date: "2023-12-01", Age: "39.9", Notes: ui.NoteManualEntry},
		{Date: "2024-01-15", Age: "42.5", Notes: ui.NoteManualEntry},
		{Date: "2024-06-01", Age: "", Notes: ui.NoteSkipped},
	}, results)
	assert.Contains(t, out.String(), "Saved 2 result(s)")
}

func TestRecordCommandNothingRecorded(t *testing.T) {
	setup(t)
	writeEntries(t, cfg.Files.BortzURLs, calculator.Entry{Date: "2024-01-15", URL: "u1"})
	prev := runProgram
	runProgram = func(m tea.Model) (tea.Model, error) {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		return m, nil
	}
	t.Cleanup(func() { runProgram = prev })
	cmd, out := newCmd()

	require.NoError(t, runRecord(cmd, nil))
	assert.Contains(t, out.String(), "Nothing recorded.")
	_, err := os.Stat(cfg.Files.BortzResults)
	assert.True(t, os.IsNotExist(err))
}

const bortzResultsCSV = `Measurement Date,Bortz Biological Age,Notes
2024-01-15,42.3,Auto-extracted
2024-06-01,TIMEOUT,Auto-extracted
2024-09-01,41.9,Manual entry
2024-10-01,400,Manual entry
`

func TestChartCommand(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.WriteFile(cfg.Files.BortzResults, []byte(bortzResultsCSV), 0o644))
	chartPNG = filepath.Join(dir, "trend.png")
	cmd, out := newCmd()

	require.NoError(t, runChart(cmd, nil))

	page, err := os.ReadFile(cfg.Files.Chart)
	require.NoError(t, err)
	assert.Contains(t, string(page), `["2024-01-15","2024-09-01"]`)
	assert.Contains(t, string(page), `[43,44]`)
	assert.NotContains(t, string(page), "{{")

	info, err := os.Stat(chartPNG)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Contains(t, out.String(), "Average delta -1.4 years over 2 point(s)")
}

func TestChartCommandNoData(t *testing.T) {
	setup(t)
	require.NoError(t, os.WriteFile(cfg.Files.BortzResults,
		[]byte("Measurement Date,Bortz Biological Age,Notes\n2024-01-15,ERROR,boom\n"), 0o644))
	cmd, _ := newCmd()
	require.ErrorIs(t, runChart(cmd, nil), history.ErrNoData)
}

func TestCombinedCommandOneSide(t *testing.T) {
	setup(t)
	require.NoError(t, os.WriteFile(cfg.Files.BortzResults, []byte(bortzResultsCSV), 0o644))
	cmd, out := newCmd()

	require.NoError(t, runCombined(cmd, nil))

	page, err := os.ReadFile(cfg.Files.CombinedChart)
	require.NoError(t, err)
	assert.Contains(t, string(page), "const levineDeltas = [null,null];")
	assert.Contains(t, out.String(), "Chart written to")
}

func TestCombinedCommandNoData(t *testing.T) {
	setup(t)
	cmd, _ := newCmd()
	require.ErrorIs(t, runCombined(cmd, nil), history.ErrNoData)
}

func TestAnalyzeCommand(t *testing.T) {
	setup(t)
	analyzeOutput = cfg.Files.Analysis
	cmd, out := newCmd()

	require.NoError(t, runAnalyze(cmd, nil))

	assert.Contains(t, out.String(), "# Biomarker Analysis Report")
	assert.Contains(t, out.String(), "| Ferritin | _unrecognised_ |")
	written, err := os.ReadFile(cfg.Files.Analysis)
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(written))
}

func TestInspectCommand(t *testing.T) {
	setup(t)
	writeEntries(t, cfg.Files.BortzURLs, calculator.Entry{Date: "2024-01-15", URL: "u1"})
	session := &fakeSession{}
	useFakeSession(t, session)
	cmd, out := newCmd()

	require.NoError(t, runInspect(cmd, nil))

	assert.Equal(t, []string{"u1"}, session.calls)
	assert.True(t, session.shutdown)
	assert.Contains(t, out.String(), "Biological age: 41.2 years")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
