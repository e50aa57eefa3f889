package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabviz/internal/chart"
	cfgpkg "github.com/KaramelBytes/tabviz/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabviz configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "date_column: %s\n", c.DateColumn)
		fmt.Fprintf(out, "category_column: %s\n", c.CategoryColumn)
		fmt.Fprintf(out, "preview_rows: %d\n", c.PreviewRows)
		fmt.Fprintf(out, "max_rows: %d\n", c.MaxRows)
		if c.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", c.Delimiter)
		}
		if c.DecimalSeparator != "" {
			fmt.Fprintf(out, "decimal_separator: %q\n", c.DecimalSeparator)
		}
		if c.Sheet != "" {
			fmt.Fprintf(out, "sheet: %s\n", c.Sheet)
		}
		fmt.Fprintf(out, "export_filename: %s\n", c.ExportFilename)
		fmt.Fprintf(out, "export_bom: %t\n", c.ExportBOM)
		fmt.Fprintf(out, "chart_format: %s\n", c.ChartFormat)
		fmt.Fprintf(out, "chart_width: %d\n", c.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", c.ChartHeight)
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "session_idle_min: %d\n", c.SessionIdleMin)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// reload so flag overrides such as --debug are not persisted
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	positive := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return 0, fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		return i, nil
	}
	switch key {
	case "date_column":
		c.DateColumn = val
	case "category_column":
		c.CategoryColumn = val
	case "preview_rows":
		i, err := positive()
		if err != nil {
			return err
		}
		c.PreviewRows = i
	case "max_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for max_rows: %v", val)
		}
		c.MaxRows = i
	case "delimiter":
		switch val {
		case "", ",", ";", "tab", `\t`:
			c.Delimiter = val
		default:
			return fmt.Errorf("invalid delimiter: %q (use ',', ';' or 'tab')", val)
		}
	case "decimal_separator":
		switch val {
		case "", ".", ",":
			c.DecimalSeparator = val
		default:
			return fmt.Errorf("invalid decimal_separator: %q (use '.' or ',')", val)
		}
	case "sheet":
		c.Sheet = val
	case "export_filename":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("export_filename must not be empty")
		}
		c.ExportFilename = val
	case "export_bom":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for export_bom: %w", err)
		}
		c.ExportBOM = b
	case "chart_format":
		f, err := chart.ParseFormat(val)
		if err != nil {
			return err
		}
		c.ChartFormat = string(f)
	case "chart_width", "chart_height", "max_upload_mb", "session_idle_min":
		i, err := positive()
		if err != nil {
			return err
		}
		switch key {
		case "chart_width":
			c.ChartWidth = i
		case "chart_height":
			c.ChartHeight = i
		case "max_upload_mb":
			c.MaxUploadMB = i
		default:
			c.SessionIdleMin = i
		}
	case "listen_addr":
		c.ListenAddr = val
	case "log_level":
		switch lvl := strings.ToLower(val); lvl {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = lvl
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
