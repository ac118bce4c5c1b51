package main

import (
	"fmt"
	"time"

	"bloodage/internal/bloodwork"
	"bloodage/internal/calculator"
	"bloodage/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	urlCalculator string
	urlDate       string
	urlInput      string
	urlOutput     string
)

// urlCmd builds a single calculator URL
var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Generate one calculator URL from the latest values",
	Long: `Builds a single calculator URL from the most recent value of every biomarker.
With --date only values measured on or before that date are used and the age
is computed for that date.

Example:
  bloodage url --calculator levine --date 2024-06-01`,
	RunE: runURL,
}

func init() {
	urlCmd.Flags().StringVar(&urlCalculator, "calculator", "bortz", "Calculator: bortz or levine")
	urlCmd.Flags().StringVar(&urlDate, "date", "", "Use values on or before this date (YYYY-MM-DD)")
	urlCmd.Flags().StringVarP(&urlInput, "input", "i", "", "Bloodwork CSV (default from config)")
	urlCmd.Flags().StringVarP(&urlOutput, "output", "o", "", "File to write the URL to (default from config)")
}

func runURL(cmd *cobra.Command, args []string) error {
	c, err := calculator.Lookup(urlCalculator)
	if err != nil {
		return err
	}
	birth, err := birthDate()
	if err != nil {
		return err
	}

	var cutoff *time.Time
	if urlDate != "" {
		d, err := bloodwork.ParseDate(urlDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", urlDate, err)
		}
		cutoff = &d
	}

	sheet, err := loadSheet(orDefault(urlInput, appConfig().Files.Bloodwork))
	if err != nil {
		return err
	}
	entry, err := c.Snapshot(sheet, birth, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}

	output := orDefault(urlOutput, urlFile(c))
	if err := writeText(output, entry.URL+"\n"); err != nil {
		return err
	}
	logging.URLs().Info("Generated URL",
		zap.String("calculator", c.Name),
		zap.String("date", entry.Date),
		zap.Int("markers", entry.Markers))

	s := styles()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, s.Success.Render(fmt.Sprintf("%s URL with %d biomarker(s) as of %s", c.Name, entry.Markers, entry.Date)))
	fmt.Fprintln(out, entry.URL)
	fmt.Fprintln(out, s.Muted.Render("Saved to "+output))
	return nil
}
