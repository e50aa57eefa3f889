package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tabviz/internal/loader"
)

const salesCSV = `Date,Produit,Region,Ventes
2024-01-05,A,Nord,10
2024-02-10,B,Nord,7
2024-02-15,A,Sud,5
pas une date,B,Sud,3
`

// resetFlags restores every flag to its default; cobra keeps values across Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func writeSales(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ventes.csv")
	if err := os.WriteFile(p, []byte(salesCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestCLI_Preview(t *testing.T) {
	path := writeSales(t)
	out := mustRun(t, "preview", path, "--rows", "2")
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 4", "- Ventes: numeric", "| Date | Produit | Region | Ventes |", "| 2024-02-10 | B | Nord | 7 |"} {
		if !strings.Contains(out, want) {
			t.Fatalf("preview missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "| 2024-02-15 |") {
		t.Fatalf("preview shows more than 2 rows:\n%s", out)
	}

	out = mustRun(t, "preview", path, "--json")
	if !strings.Contains(out, `"numeric"`) || !strings.Contains(out, `"head"`) {
		t.Fatalf("json preview = %s", out)
	}
}

func TestCLI_PreviewLoadError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(p, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCmd(t, "preview", p)
	var le *loader.LoadError
	if err == nil || !errors.As(err, &le) {
		t.Fatalf("err = %v, want *loader.LoadError", err)
	}
}

func TestCLI_VisualizeChartAndExport(t *testing.T) {
	path := writeSales(t)
	dir := t.TempDir()
	chartPath := filepath.Join(dir, "chart.png")
	exportPath := filepath.Join(dir, "export.csv")

	out := mustRun(t, "visualize", path, "-c", "A", "-g", "Region", "--out", chartPath, "--export="+exportPath)
	if !strings.Contains(out, "Rows after filters: 2/4") || !strings.Contains(out, "| Nord | 10 |") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	img, err := os.ReadFile(chartPath)
	if err != nil || !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Fatalf("chart not written as png: %v", err)
	}
	csv, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "Date,Produit,Region,Ventes\n2024-01-05,A,Nord,10\n2024-02-15,A,Sud,5\n"
	if string(csv) != want {
		t.Fatalf("export = %q, want %q", csv, want)
	}
}

func TestCLI_VisualizeDefaultGrouping(t *testing.T) {
	path := writeSales(t)
	out := mustRun(t, "visualize", path, "-g", "Produit", "--json")
	if !strings.Contains(out, `"15"`) || !strings.Contains(out, `"Ventes par Produit"`) {
		t.Fatalf("json output = %s", out)
	}
}

func TestCLI_VisualizePieAdvisory(t *testing.T) {
	path := writeSales(t)
	chartPath := filepath.Join(t.TempDir(), "pie.svg")
	out := mustRun(t, "visualize", path, "-g", "Produit,Region", "--chart", "pie", "--out", chartPath)
	if !strings.Contains(out, "UnsupportedPieGrouping") || !strings.Contains(out, "No chart written") {
		t.Fatalf("missing pie advisory:\n%s", out)
	}
	if _, err := os.Stat(chartPath); !os.IsNotExist(err) {
		t.Fatalf("chart should not be written")
	}

	out = mustRun(t, "visualize", path, "-g", "Produit", "--chart", "camembert", "--out", chartPath)
	if !strings.Contains(out, "✓ Wrote chart") {
		t.Fatalf("pie not written:\n%s", out)
	}
	svg, _ := os.ReadFile(chartPath)
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Fatalf("expected svg output")
	}
}

func TestCLI_VisualizeRejectsBadSelection(t *testing.T) {
	path := writeSales(t)
	if _, err := runCmd(t, "visualize", path, "--chart", "radar"); err == nil {
		t.Fatalf("expected error for unknown chart")
	}
	if _, err := runCmd(t, "visualize", path, "--date-from", "05/01/2024"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestCLI_VisualizeXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{{"Jour", "Famille", "Montant"}, {"2024-03-01", "X", 2}, {"2024-03-02", "Y", 3}, {"2024-03-03", "X", 4}}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "ventes.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}
	out := mustRun(t, "visualize", path, "--date-column", "Jour", "--category-column", "Famille",
		"--date-to", "2024-03-02", "-c", "X,Y", "-g", "Famille")
	if !strings.Contains(out, "| X | 2 |") || !strings.Contains(out, "| Y | 3 |") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	mustRun(t, "--config", cfgPath, "config", "set", "date_column", "Jour")
	mustRun(t, "--config", cfgPath, "config", "set", "chart_format", "SVG")
	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "chart_width", "-1"); err == nil {
		t.Fatalf("expected error for negative width")
	}
	if _, err := runCmd(t, "--config", cfgPath, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	out := mustRun(t, "--config", cfgPath, "config", "show")
	if !strings.Contains(out, "date_column: Jour") || !strings.Contains(out, "chart_format: svg") {
		t.Fatalf("config show = %s", out)
	}
}
