package main

import (
	"context"
	"fmt"
	"time"

	"bloodage/cmd/bloodage/ui"
	"bloodage/internal/browser"
	"bloodage/internal/calculator"
	"bloodage/internal/history"
	"bloodage/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	extractCalculator  string
	extractInput       string
	extractOutput      string
	extractWait        time.Duration
	extractHeadless    bool
	extractIncremental bool
	extractChromeFlags []string
)

// extractCmd reads the ages back from the calculator pages
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Read biological ages from the calculator pages with a browser",
	Long: `Opens every batch URL in Chrome, one page at a time, waits for the calculator
to show its result and writes the ages to the results CSV. Pages that never
show a result are recorded as TIMEOUT, pages that fail as ERROR, and a result
stuck on the placeholder as "00 (needs verification)".

With --incremental, dates that already have an age in the results file are
skipped and the new rows are merged in.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractCalculator, "calculator", "bortz", "Calculator: bortz or levine")
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Batch JSON file (default from config)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Results CSV (default from config)")
	extractCmd.Flags().DurationVar(&extractWait, "wait", 0, "Max wait for each result (default from config)")
	extractCmd.Flags().BoolVar(&extractHeadless, "headless", false, "Run Chrome without a window")
	extractCmd.Flags().BoolVar(&extractIncremental, "incremental", false, "Skip dates that already have an age")
	extractCmd.Flags().StringArrayVar(&extractChromeFlags, "chrome-flag", nil, "Extra Chrome flag, repeatable (e.g. --chrome-flag=--no-sandbox)")
}

// ageSession is a started age reader that must be shut down.
type ageSession interface {
	browser.AgeReader
	Shutdown() error
}

// startReader launches the browser. Tests replace it.
var startReader = func(ctx context.Context, bcfg browser.Config) (ageSession, error) {
	ex := browser.NewExtractor(bcfg, logging.Browser())
	if err := ex.Start(ctx); err != nil {
		return nil, err
	}
	return ex, nil
}

// pageDelay is the pause between automated page loads.
var pageDelay = time.Second

func runExtract(cmd *cobra.Command, args []string) error {
	c, err := calculator.Lookup(extractCalculator)
	if err != nil {
		return err
	}
	input := orDefault(extractInput, batchFile(c))
	output := orDefault(extractOutput, resultsFile(c))

	entries, err := calculator.LoadEntries(input)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no URLs in %s (run batch first)", input)
	}

	var existing []history.Result
	skip := map[string]bool{}
	if extractIncremental {
		existing, err = history.LoadResults(output, c.AgeColumn)
		if err != nil {
			return err
		}
		skip = extractedDates(existing)
	}

	bcfg := browser.ConfigFrom(appConfig().Browser)
	if cmd.Flags().Changed("headless") {
		bcfg.Headless = extractHeadless
	}
	bcfg.Launch = append(bcfg.Launch, extractChromeFlags...)
	if extractWait > 0 {
		bcfg.ResultWait = extractWait
	}

	ctx, cancel := commandContext()
	defer cancel()

	reader, err := startReader(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if err := reader.Shutdown(); err != nil {
			logging.Browser().Warn("Browser shutdown failed", zap.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	s := styles()
	results := browser.Process(ctx, reader, entries, browser.Options{
		Delay:  pageDelay,
		Skip:   skip,
		Logger: logging.Browser().With(zap.String("calculator", c.Name)),
		OnResult: func(i, total int, r history.Result) {
			fmt.Fprintf(out, "[%d/%d] %s -> %s\n", i, total, r.Date, r.Age)
		},
	})
	if len(results) == 0 {
		fmt.Fprintln(out, s.Muted.Render("Nothing to extract."))
		return nil
	}

	final := results
	if extractIncremental {
		final = history.Merge(existing, results)
	}
	if err := history.SaveResults(output, c.AgeColumn, final); err != nil {
		return err
	}

	table := ui.NewSimpleTable(fmt.Sprintf("%s ages", c.Name), "Date", c.AgeColumn, "Notes")
	found := 0
	for _, r := range results {
		if browser.IsAge(r.Age) {
			found++
		}
		table.AddRow(r.Date, r.Age, r.Notes)
	}
	fmt.Fprint(out, table.View(s))
	fmt.Fprintf(out, "Extracted %d of %d age(s); saved to %s\n", found, len(results), output)
	if ctx.Err() != nil {
		return fmt.Errorf("extraction interrupted: %w", ctx.Err())
	}
	return nil
}

// extractedDates returns the dates whose result holds a usable age.
func extractedDates(results []history.Result) map[string]bool {
	done := make(map[string]bool, len(results))
	for _, r := range results {
		if browser.IsAge(r.Age) {
			done[r.Date] = true
		}
	}
	return done
}
