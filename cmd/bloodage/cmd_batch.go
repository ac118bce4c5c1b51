package main

import (
	"fmt"
	"strconv"
	"strings"

	"bloodage/cmd/bloodage/ui"
	"bloodage/internal/calculator"
	"bloodage/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchCalculator string
	batchInput      string
	batchOutput     string

	updateCalculator string
	updateInput      string
)

// batchCmd writes one URL per measurement date
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate one calculator URL per measurement date",
	Long: `Writes a JSON list of {"date", "url"} entries, one per distinct measurement
date. Each URL carries the latest value of every biomarker measured on or
before its date. Levine dates missing a required biomarker are reported and
left out.`,
	RunE: runBatch,
}

// updateCmd appends URLs for new dates only
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Append URLs for dates not yet in the batch files",
	Long: `Regenerates the batch URLs and appends only the dates missing from the
existing batch files, so earlier entries stay untouched.

Example:
  bloodage update --calculator both`,
	RunE: runUpdate,
}

func init() {
	batchCmd.Flags().StringVar(&batchCalculator, "calculator", "bortz", "Calculator: bortz or levine")
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "Bloodwork CSV (default from config)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Batch JSON file (default from config)")

	updateCmd.Flags().StringVar(&updateCalculator, "calculator", "both", "Calculator: bortz, levine or both")
	updateCmd.Flags().StringVarP(&updateInput, "input", "i", "", "Bloodwork CSV (default from config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	c, err := calculator.Lookup(batchCalculator)
	if err != nil {
		return err
	}
	birth, err := birthDate()
	if err != nil {
		return err
	}
	sheet, err := loadSheet(orDefault(batchInput, appConfig().Files.Bloodwork))
	if err != nil {
		return err
	}

	res := c.Batch(sheet, birth)
	logIncomplete(c, res)
	if len(res.Entries) == 0 {
		return fmt.Errorf("%s: %w", c.Name, calculator.ErrNoData)
	}

	output := orDefault(batchOutput, batchFile(c))
	if err := calculator.SaveEntries(output, res.Entries); err != nil {
		return err
	}
	logging.URLs().Info("Generated batch URLs",
		zap.String("calculator", c.Name),
		zap.Int("urls", len(res.Entries)),
		zap.Int("incomplete", len(res.Incomplete)))

	table := ui.NewSimpleTable(fmt.Sprintf("%s batch URLs", c.Name), "Date", "Biomarkers")
	for _, e := range res.Entries {
		table.AddRow(e.Date, strconv.Itoa(e.Markers))
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, table.View(styles()))
	fmt.Fprintf(out, "Wrote %d URL(s) to %s\n", len(res.Entries), output)
	if len(res.Incomplete) > 0 {
		fmt.Fprintln(out, styles().Warning.Render(fmt.Sprintf("Skipped %d incomplete date(s)", len(res.Incomplete))))
	}
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	var targets []calculator.Calculator
	if strings.EqualFold(strings.TrimSpace(updateCalculator), "both") {
		targets = calculator.All()
	} else {
		c, err := calculator.Lookup(updateCalculator)
		if err != nil {
			return err
		}
		targets = []calculator.Calculator{c}
	}

	birth, err := birthDate()
	if err != nil {
		return err
	}
	sheet, err := loadSheet(orDefault(updateInput, appConfig().Files.Bloodwork))
	if err != nil {
		return err
	}

	table := ui.NewSimpleTable("Incremental update", "Calculator", "New dates", "Total", "File")
	for _, c := range targets {
		path := batchFile(c)
		existing, err := calculator.LoadEntries(path)
		if err != nil {
			return err
		}
		res := c.Batch(sheet, birth)
		logIncomplete(c, res)

		merged, added := calculator.MergeEntries(existing, res.Entries)
		if added > 0 {
			if err := calculator.SaveEntries(path, merged); err != nil {
				return err
			}
		}
		logging.URLs().Info("Updated batch URLs",
			zap.String("calculator", c.Name),
			zap.Int("added", added),
			zap.Int("total", len(merged)))
		table.AddRow(c.Name, strconv.Itoa(added), strconv.Itoa(len(merged)), path)
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(styles()))
	return nil
}

func logIncomplete(c calculator.Calculator, res calculator.BatchResult) {
	for _, inc := range res.Incomplete {
		logging.URLs().Warn("Skipping date with missing biomarkers",
			zap.String("calculator", c.Name),
			zap.String("date", inc.Date),
			zap.Strings("missing", inc.Missing))
	}
}
