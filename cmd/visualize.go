package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/KaramelBytes/tabviz/internal/chart"
	"github.com/KaramelBytes/tabviz/internal/dataset"
	"github.com/KaramelBytes/tabviz/internal/pipeline"
	"github.com/KaramelBytes/tabviz/internal/utils"
	"github.com/spf13/cobra"
)

var (
	visFlags          loadFlags
	visDateFrom       string
	visDateTo         string
	visDateColumn     string
	visCategoryColumn string
	visCategories     []string
	visValue          string
	visGroupBy        []string
	visChart          string
	visOut            string
	visExport         string
	visJSON           bool
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize <file>",
	Short: "Filter, group, chart and export a CSV/XLSX file",
	Long: `Loads the file, keeps rows within --date-from/--date-to and the --category values,
sums --value by the --group-by columns and prints the grouped table.
--out writes the chart (PNG or SVG by extension); --export writes the filtered rows as CSV.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		ds, err := visFlags.load(args[0])
		if err != nil {
			return err
		}
		typ, err := chart.ParseType(visChart)
		if err != nil {
			return err
		}
		dateCol, catCol := c.DateColumn, c.CategoryColumn
		if visDateColumn != "" {
			dateCol = visDateColumn
		}
		if visCategoryColumn != "" {
			catCol = visCategoryColumn
		}
		sel := pipeline.Selection{
			DateFrom:    visDateFrom,
			DateTo:      visDateTo,
			Categories:  visCategories,
			ValueColumn: visValue,
			GroupBy:     visGroupBy,
			Chart:       string(typ),
		}.WithDefaults(dateCol, catCol)

		res, err := pipeline.Run(ds, sel)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, w := range ds.Warnings {
			fmt.Fprintf(out, "⚠ %s\n", w)
		}
		for _, a := range res.Advisories {
			logger().Debug("advisory", slog.String("kind", string(a.Kind)), slog.String("message", a.Message))
			fmt.Fprintf(out, "⚠ %s: %s\n", a.Kind, a.Message)
		}

		if visJSON {
			if err := printResultJSON(out, res); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "Rows after filters: %d/%d\n", res.Filtered.Len(), ds.Len())
			if res.Grouped != nil {
				fmt.Fprintln(out)
				fmt.Fprint(out, dataset.Table(res.Grouped.Names(), res.Grouped.Head(-1)))
			}
		}

		if visOut != "" {
			if res.Chart == nil {
				fmt.Fprintln(out, "⚠ No chart written for this selection")
			} else if err := writeChart(visOut, res.Chart); err != nil {
				return err
			} else {
				fmt.Fprintf(out, "✓ Wrote chart to %s\n", visOut)
			}
		}
		if cmd.Flags().Changed("export") {
			path := visExport
			if path == "" || path == dataset.ExportFilename {
				path = c.ExportFilename
			}
			var buf bytes.Buffer
			if err := dataset.WriteCSV(&buf, res.Filtered, dataset.ExportOptions{BOMPrefix: c.ExportBOM}); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(out, "✓ Exported %d rows to %s\n", res.Filtered.Len(), path)
		}
		return nil
	},
}

// writeChart renders spec in the format implied by the file extension,
// falling back to the configured format.
func writeChart(path string, spec *chart.Spec) error {
	c := currentConfig()
	format, err := chart.ParseFormat(filepath.Ext(path))
	if err != nil || filepath.Ext(path) == "" {
		if format, err = chart.ParseFormat(c.ChartFormat); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := chart.NewRenderer(c.ChartWidth, c.ChartHeight, format).Render(&buf, spec); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

func printResultJSON(w io.Writer, res *pipeline.Result) error {
	payload := map[string]any{
		"selection":     res.Selection,
		"filtered_rows": res.Filtered.Len(),
		"advisories":    res.Advisories,
		"chart":         res.Chart,
	}
	if res.Grouped != nil {
		payload["grouped"] = map[string]any{"columns": res.Grouped.Names(), "rows": res.Grouped.Head(-1)}
	}
	b, err := utils.PrettyJSON(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func init() {
	rootCmd.AddCommand(visualizeCmd)
	visFlags.bind(visualizeCmd)
	f := visualizeCmd.Flags()
	f.StringVar(&visDateFrom, "date-from", "", "keep rows on or after this day (YYYY-MM-DD; default: earliest date)")
	f.StringVar(&visDateTo, "date-to", "", "keep rows on or before this day (YYYY-MM-DD; default: latest date)")
	f.StringVar(&visDateColumn, "date-column", "", "column used by the date filter (default from config date_column)")
	f.StringVar(&visCategoryColumn, "category-column", "", "column used by the category filter (default from config category_column)")
	f.StringSliceVarP(&visCategories, "category", "c", nil, "category values to keep (repeatable or comma-separated)")
	f.StringVar(&visValue, "value", "", "numeric column to sum (default: first numeric column)")
	f.StringSliceVarP(&visGroupBy, "group-by", "g", nil, "grouping columns in order: X axis, then color")
	f.StringVar(&visChart, "chart", "bars", "chart type: bars, lines or pie")
	f.StringVarP(&visOut, "out", "o", "", "write the chart to this file (.png or .svg)")
	f.StringVar(&visExport, "export", "", "export filtered rows as CSV; bare --export uses config export_filename")
	f.Lookup("export").NoOptDefVal = dataset.ExportFilename
	f.BoolVar(&visJSON, "json", false, "print the result as JSON")
}
