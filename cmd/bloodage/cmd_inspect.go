package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloodage/cmd/bloodage/ui"
	"bloodage/internal/browser"
	"bloodage/internal/calculator"
	"bloodage/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	inspectCalculator string
	inspectInput      string
	inspectWait       time.Duration
)

// inspectCmd helps find the result element when the calculator page changes
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List elements on a calculator page that may hold the age",
	Long: `Loads the first batch URL, waits for the page to settle and lists the elements
whose text mentions an age. Use it to update the result selectors when the
calculator page layout changes.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectCalculator, "calculator", "bortz", "Calculator: bortz or levine")
	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "Batch JSON file (default from config)")
	inspectCmd.Flags().DurationVar(&inspectWait, "wait", 10*time.Second, "Time to let the page render")
}

// pageSession fetches rendered page HTML.
type pageSession interface {
	PageHTML(ctx context.Context, url string, wait time.Duration) (string, error)
	Shutdown() error
}

// startPager launches the browser for inspect. Tests replace it.
var startPager = func(ctx context.Context, bcfg browser.Config) (pageSession, error) {
	ex := browser.NewExtractor(bcfg, logging.Browser())
	if err := ex.Start(ctx); err != nil {
		return nil, err
	}
	return ex, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	c, err := calculator.Lookup(inspectCalculator)
	if err != nil {
		return err
	}
	input := orDefault(inspectInput, batchFile(c))
	entries, err := calculator.LoadEntries(input)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no URLs in %s (run batch first)", input)
	}

	ctx, cancel := commandContext()
	defer cancel()

	session, err := startPager(ctx, browser.ConfigFrom(appConfig().Browser))
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if err := session.Shutdown(); err != nil {
			logging.Browser().Warn("Browser shutdown failed", zap.Error(err))
		}
	}()

	first := entries[0]
	page, err := session.PageHTML(ctx, first.URL, inspectWait)
	if err != nil {
		return err
	}
	candidates, err := browser.FindCandidates(strings.NewReader(page))
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}
	logging.Browser().Debug("Inspected page",
		zap.String("date", first.Date),
		zap.Int("bytes", len(page)),
		zap.Int("candidates", len(candidates)))

	out := cmd.OutOrStdout()
	if len(candidates) == 0 {
		fmt.Fprintln(out, styles().Warning.Render("No age-like elements found."))
		return nil
	}
	table := ui.NewSimpleTable("Candidates for "+first.Date, "Tag", "ID", "Class", "Text")
	for _, cand := range candidates {
		table.AddRow(cand.Tag, cand.ID, cand.Class, truncate(cand.Text, 60))
	}
	fmt.Fprint(out, table.View(styles()))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
