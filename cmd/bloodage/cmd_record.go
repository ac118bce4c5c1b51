package main

import (
	"fmt"
	"time"

	"bloodage/cmd/bloodage/ui"
	"bloodage/internal/browser"
	"bloodage/internal/calculator"
	"bloodage/internal/history"
	"bloodage/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	recordCalculator string
	recordInput      string
	recordOutput     string
	recordDelay      time.Duration
)

// recordCmd collects ages by hand
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Open each URL in your browser and type in the age shown",
	Long: `Opens every batch URL in your desktop browser, one at a time, and asks for
the age the calculator shows. Enter a number, "skip" to leave the date blank,
or "quit" to stop. Answers are merged into the results CSV; a new answer for a
date replaces the old one.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&recordCalculator, "calculator", "bortz", "Calculator: bortz or levine")
	recordCmd.Flags().StringVarP(&recordInput, "input", "i", "", "Batch JSON file (default from config)")
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "Results CSV (default from config)")
	recordCmd.Flags().DurationVar(&recordDelay, "delay", 0, "Time to let each page load (default from config)")
}

// runProgram runs the TUI. Tests replace it.
var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

func runRecord(cmd *cobra.Command, args []string) error {
	c, err := calculator.Lookup(recordCalculator)
	if err != nil {
		return err
	}
	input := orDefault(recordInput, batchFile(c))
	output := orDefault(recordOutput, resultsFile(c))

	entries, err := calculator.LoadEntries(input)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no URLs in %s (run batch first)", input)
	}
	delay := recordDelay
	if delay <= 0 {
		delay = appConfig().Browser.GetPageDelay()
	}

	final, err := runProgram(ui.NewRecordModel(entries, browser.OpenInDefaultBrowser, delay))
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	model, ok := final.(ui.RecordModel)
	if !ok {
		return fmt.Errorf("record: unexpected model %T", final)
	}

	fresh := model.Results()
	if len(fresh) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), styles().Muted.Render("Nothing recorded."))
		return nil
	}
	existing, err := history.LoadResults(output, c.AgeColumn)
	if err != nil {
		return err
	}
	if err := history.SaveResults(output, c.AgeColumn, history.Merge(existing, fresh)); err != nil {
		return err
	}
	logging.Record().Info("Saved manual results",
		zap.String("calculator", c.Name),
		zap.Int("recorded", len(fresh)),
		zap.Bool("stopped", model.Stopped()))
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d result(s) to %s\n", len(fresh), output)
	return nil
}
