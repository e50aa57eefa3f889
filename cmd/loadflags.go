package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/KaramelBytes/tabviz/internal/dataset"
	"github.com/KaramelBytes/tabviz/internal/loader"
	"github.com/spf13/cobra"
)

// loadFlags are the file-reading flags shared by preview and visualize.
type loadFlags struct {
	delimiter string
	decimal   string
	thousands string
	sheet     string
	maxRows   int
}

func (lf *loadFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&lf.delimiter, "delimiter", "", "CSV delimiter: ',', ';' or 'tab' (default: auto-detect)")
	cmd.Flags().StringVar(&lf.decimal, "decimal", "", "decimal separator: '.' or 'comma' (default: auto-detect per value)")
	cmd.Flags().StringVar(&lf.thousands, "thousands", "", "thousands separator: ',', '.' or 'space'")
	cmd.Flags().StringVar(&lf.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().IntVar(&lf.maxRows, "max-rows", 0, "maximum rows to load (0 = all)")
}

// options merges the flags over the configuration.
func (lf *loadFlags) options() (loader.Options, error) {
	c := currentConfig()
	opt := loader.Options{
		MaxRows:   c.MaxRows,
		Delimiter: c.DelimiterRune(),
		SheetName: c.Sheet,
		Parse:     dataset.ParseOptions{DecimalSeparator: c.DecimalRune()},
	}
	if lf.maxRows > 0 {
		opt.MaxRows = lf.maxRows
	}
	if lf.sheet != "" {
		opt.SheetName = lf.sheet
	}
	switch lf.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", lf.delimiter)
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(lf.decimal)) {
	case ",", "comma":
		opt.Parse.DecimalSeparator = ','
	case ".", "dot":
		opt.Parse.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", lf.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(lf.thousands)) {
	case ",":
		opt.Parse.ThousandsSeparator = ','
	case ".":
		opt.Parse.ThousandsSeparator = '.'
	case "space", " ":
		opt.Parse.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", lf.thousands)
	}
	return opt, nil
}

// load reads path into a dataset using the flags.
func (lf *loadFlags) load(path string) (*dataset.Dataset, error) {
	opt, err := lf.options()
	if err != nil {
		return nil, err
	}
	ds, err := loader.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	logger().Debug("dataset loaded", slog.String("file", ds.Name), slog.Int("rows", ds.Len()), slog.Int("columns", len(ds.Columns)))
	return ds, nil
}
