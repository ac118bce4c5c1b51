package main

import (
	"fmt"
	"os"
	"time"

	"bloodage/internal/config"
	"bloodage/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	birthdate  string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bloodage",
	Short: "Biological age from bloodwork exports",
	Long: `bloodage turns a bloodwork CSV export into URLs for the Bortz Blood Age and
Levine PhenoAge calculators, reads the computed ages back with a browser, and
charts how biological age tracks chronological age over time.

Typical flow:
  bloodage batch --calculator bortz      # one URL per measurement date
  bloodage extract --calculator bortz    # read the ages back
  bloodage chart --calculator bortz      # render age_trend.html`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if birthdate != "" {
			loaded.Birthdate = birthdate
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		logging.Init(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&birthdate, "birthdate", "", "Birthdate YYYY-MM-DD (overrides config and BLOODAGE_BIRTHDATE)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Hour, "Operation timeout")

	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(combinedCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
