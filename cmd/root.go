package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/tabviz/internal/config"
	"github.com/KaramelBytes/tabviz/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg       *cfgpkg.Global
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tabviz",
	Short: "tabviz: filter, aggregate and chart a CSV or Excel file",
	Long: `tabviz loads one CSV or XLSX file, previews it, filters it by date range and category,
sums a numeric column by the chosen grouping columns, draws a bar, line or pie chart
and exports the filtered rows as CSV. Run "tabviz serve" for the HTTP interface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabviz/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	// Apply CLI overrides if provided
	if debug {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	appLogger = logging.Init(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	appLogger.Debug("config loaded", slog.String("config", cfgFile), slog.String("date_column", cfg.DateColumn), slog.String("category_column", cfg.CategoryColumn))
}

// currentConfig returns the loaded configuration, or defaults when loading was skipped.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

func logger() *slog.Logger {
	if appLogger == nil {
		return slog.Default()
	}
	return appLogger
}
