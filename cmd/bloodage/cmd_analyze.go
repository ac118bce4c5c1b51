package main

import (
	"fmt"

	"bloodage/internal/bloodwork"
	"bloodage/internal/logging"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeInput   string
	analyzeOutput  string
	analyzeSamples int
	analyzeRender  bool
)

// analyzeCmd reports on the raw bloodwork export
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarise the biomarkers in a bloodwork export",
	Long: `Lists every biomarker label in the export with its value counts, a few sample
values and the canonical marker it maps to. Labels that map to nothing are
flagged so they can be added as aliases; skipped rows are listed at the end.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "Bloodwork CSV (default from config)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Also write the markdown report to this file")
	analyzeCmd.Flags().IntVar(&analyzeSamples, "samples", 5, "Sample values shown per biomarker")
	analyzeCmd.Flags().BoolVar(&analyzeRender, "render", false, "Render the report for the terminal")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input := orDefault(analyzeInput, appConfig().Files.Bloodwork)
	sheet, err := loadSheet(input)
	if err != nil {
		return err
	}
	rep := bloodwork.Analyze(sheet)
	md := rep.Markdown(analyzeSamples)

	if analyzeOutput != "" {
		if err := writeText(analyzeOutput, md); err != nil {
			return err
		}
		logging.CSV().Info("Wrote analysis", zap.String("path", analyzeOutput))
	}
	if unresolved := rep.Unresolved(); len(unresolved) > 0 {
		logging.CSV().Warn("Unrecognised biomarker labels", zap.Strings("labels", unresolved))
	}

	out := cmd.OutOrStdout()
	if !analyzeRender {
		fmt.Fprint(out, md)
		return nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		// Fall back to plain markdown.
		fmt.Fprint(out, md)
		return nil
	}
	fmt.Fprint(out, rendered)
	return nil
}
