package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/tabviz/internal/dataset"
	"github.com/KaramelBytes/tabviz/internal/utils"
	"github.com/spf13/cobra"
)

var (
	prvFlags  loadFlags
	prvRows   int
	prvJSON   bool
	prvOutput string
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show the inferred schema and the first rows of a CSV/XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := prvFlags.load(args[0])
		if err != nil {
			return err
		}
		rows := currentConfig().PreviewRows
		if cmd.Flags().Changed("rows") {
			rows = prvRows
		}

		var out []byte
		if prvJSON {
			out, err = utils.PrettyJSON(map[string]any{
				"name":     ds.Name,
				"rows":     ds.Len(),
				"schema":   dataset.Describe(ds),
				"header":   ds.Names(),
				"head":     ds.Head(rows),
				"warnings": ds.Warnings,
			})
			if err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(dataset.Markdown(ds, rows))
		}

		if prvOutput != "" {
			if err := os.WriteFile(prvOutput, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote preview to %s\n", prvOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	prvFlags.bind(previewCmd)
	previewCmd.Flags().IntVarP(&prvRows, "rows", "n", 5, "number of rows to show (default from config preview_rows)")
	previewCmd.Flags().BoolVar(&prvJSON, "json", false, "print JSON instead of markdown")
	previewCmd.Flags().StringVarP(&prvOutput, "output", "o", "", "write the preview to a file instead of stdout")
}
