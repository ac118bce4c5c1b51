package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"bloodage/cmd/bloodage/ui"
	"bloodage/internal/bloodwork"
	"bloodage/internal/calculator"
	"bloodage/internal/history"
	"bloodage/internal/logging"
	"bloodage/internal/render"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	chartCalculator string
	chartInput      string
	chartOutput     string
	chartTemplate   string
	chartPNG        string

	combinedBortz    string
	combinedLevine   string
	combinedOutput   string
	combinedTemplate string
	combinedPNG      string
)

// chartCmd renders one calculator's age history
var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the age history of one calculator as an HTML chart",
	Long: `Reads the results CSV, pairs every age with the chronological age on the same
date and renders an interactive Chart.js page. Ages of zero, statuses such as
TIMEOUT and implausible values (below zero or above max_reasonable_age) are
left out.`,
	RunE: runChart,
}

// combinedCmd renders Bortz and Levine side by side
var combinedCmd = &cobra.Command{
	Use:   "combined",
	Short: "Render Bortz and Levine age histories on one chart",
	RunE:  runCombined,
}

func init() {
	chartCmd.Flags().StringVar(&chartCalculator, "calculator", "bortz", "Calculator: bortz or levine")
	chartCmd.Flags().StringVarP(&chartInput, "input", "i", "", "Results CSV (default from config)")
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "HTML output (default from config)")
	chartCmd.Flags().StringVar(&chartTemplate, "template", "", "Custom HTML template")
	chartCmd.Flags().StringVar(&chartPNG, "png", "", "Also write a static PNG chart to this path")

	combinedCmd.Flags().StringVar(&combinedBortz, "bortz", "", "Bortz results CSV (default from config)")
	combinedCmd.Flags().StringVar(&combinedLevine, "levine", "", "Levine results CSV (default from config)")
	combinedCmd.Flags().StringVarP(&combinedOutput, "output", "o", "", "HTML output (default from config)")
	combinedCmd.Flags().StringVar(&combinedTemplate, "template", "", "Custom HTML template")
	combinedCmd.Flags().StringVar(&combinedPNG, "png", "", "Also write a static PNG chart to this path")
}

func runChart(cmd *cobra.Command, args []string) error {
	c, err := calculator.Lookup(chartCalculator)
	if err != nil {
		return err
	}
	birth, err := birthDate()
	if err != nil {
		return err
	}
	tmpl, err := render.LoadTemplate(chartTemplate, render.KindSingle)
	if err != nil {
		return err
	}

	series, err := loadSeries(orDefault(chartInput, resultsFile(c)), c.AgeColumn)
	if err != nil {
		return err
	}
	if len(series.Samples) == 0 {
		return fmt.Errorf("%s: %w", c.Name, history.ErrNoData)
	}
	points := history.Join(series, birth)

	page, err := render.Single(tmpl, points)
	if err != nil {
		return err
	}
	output := orDefault(chartOutput, chartFile(c))
	if err := render.WriteFile(output, []byte(page)); err != nil {
		return err
	}
	if chartPNG != "" {
		if err := writePNG(chartPNG, c.Name+" age history", render.PointLines(c.AgeColumn, points)...); err != nil {
			return err
		}
	}
	logging.Render().Info("Rendered chart",
		zap.String("calculator", c.Name),
		zap.Int("points", len(points)),
		zap.String("output", output))

	table := ui.NewSimpleTable(c.AgeColumn, "Date", "Age", "Chronological", "Delta")
	var sum float64
	for _, p := range points {
		table.AddRow(p.Date.Format(bloodwork.DateLayout), fmt.Sprintf("%.1f", p.Estimated),
			fmt.Sprintf("%.0f", p.Chronological), fmt.Sprintf("%+.1f", p.Delta))
		sum += p.Delta
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, table.View(styles()))
	fmt.Fprintf(out, "Average delta %+.1f years over %d point(s)\n", sum/float64(len(points)), len(points))
	fmt.Fprintf(out, "Chart written to %s\n", output)
	return nil
}

func runCombined(cmd *cobra.Command, args []string) error {
	birth, err := birthDate()
	if err != nil {
		return err
	}
	tmpl, err := render.LoadTemplate(combinedTemplate, render.KindCombined)
	if err != nil {
		return err
	}

	bortz, err := loadOptionalSeries(orDefault(combinedBortz, appConfig().Files.BortzResults), calculator.Bortz.AgeColumn)
	if err != nil {
		return err
	}
	levine, err := loadOptionalSeries(orDefault(combinedLevine, appConfig().Files.LevineResults), calculator.Levine.AgeColumn)
	if err != nil {
		return err
	}
	if len(bortz.Samples) == 0 && len(levine.Samples) == 0 {
		return history.ErrNoData
	}

	combined := history.JoinCombined(bortz, levine, birth)
	page, err := render.Combined(tmpl, combined)
	if err != nil {
		return err
	}
	output := orDefault(combinedOutput, appConfig().Files.CombinedChart)
	if err := render.WriteFile(output, []byte(page)); err != nil {
		return err
	}
	if combinedPNG != "" {
		if err := writePNG(combinedPNG, "Biological age: Bortz vs Levine", render.CombinedLines(combined)...); err != nil {
			return err
		}
	}
	logging.Render().Info("Rendered combined chart",
		zap.Int("dates", len(combined.Dates)),
		zap.Int("bortz", len(bortz.Samples)),
		zap.Int("levine", len(levine.Samples)))

	table := ui.NewSimpleTable("Combined age history", "Date", "Bortz", "Levine", "Chronological")
	for i, d := range combined.Dates {
		table.AddRow(d.Format(bloodwork.DateLayout), formatOptional(combined.Bortz[i]),
			formatOptional(combined.Levine[i]), fmt.Sprintf("%.0f", combined.Chronological[i]))
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(styles()))
	fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", output)
	return nil
}

func loadSeries(path, column string) (history.Series, error) {
	series, err := history.LoadSeries(path, column, appConfig().MaxReasonableAge)
	if err != nil {
		return history.Series{}, err
	}
	for _, ex := range series.Excluded {
		logging.Render().Warn("Excluded implausible age",
			zap.String("date", ex.Date),
			zap.Float64("age", ex.Age),
			zap.Float64("max", appConfig().MaxReasonableAge))
	}
	return series, nil
}

// loadOptionalSeries treats a missing results file as an empty series.
func loadOptionalSeries(path, column string) (history.Series, error) {
	series, err := loadSeries(path, column)
	if errors.Is(err, os.ErrNotExist) {
		logging.Render().Warn("Results file not found, skipping", zap.String("path", path))
		return history.Series{Column: column}, nil
	}
	return series, err
}

func writePNG(path, title string, lines ...render.Line) error {
	var buf bytes.Buffer
	if err := render.PNG(&buf, title, lines...); err != nil {
		return err
	}
	return render.WriteFile(path, buf.Bytes())
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
