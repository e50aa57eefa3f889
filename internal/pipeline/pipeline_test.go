package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

func sales() *dataset.Dataset {
	return dataset.FromRecords("ventes.csv",
		[]string{"Date", "Produit", "Region", "Ventes"},
		[][]string{
			{"2024-01-05", "A", "Nord", "10"},
			{"2024-02-10", "B", "Nord", "7"},
			{"2024-02-15", "A", "Sud", "5"},
			{"bientôt", "A", "Sud", "100"},
		}, dataset.ParseOptions{})
}

func defaults(s Selection) Selection { return s.WithDefaults("Date", "Produit") }

func TestRunGroupsAndCharts(t *testing.T) {
	res, err := Run(sales(), defaults(Selection{GroupBy: []string{"Produit"}}))
	require.NoError(t, err)
	assert.Empty(t, res.Advisories)
	assert.Equal(t, 3, res.Filtered.Len(), "unparseable date dropped by default range")
	assert.Equal(t, "Ventes", res.Selection.ValueColumn)
	assert.Equal(t, [][]string{{"A", "15"}, {"B", "7"}}, res.Grouped.Head(-1))
	require.NotNil(t, res.Chart)
	assert.Equal(t, "Ventes par Produit", res.Chart.Title)
}

func TestRunUnparseableDateScenario(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Date", "Ventes"}, [][]string{{"2024-01-01", "1"}, {"not-a-date", "2"}}, dataset.ParseOptions{})
	res, err := Run(ds, defaults(Selection{DateFrom: "2023-01-01", DateTo: "2025-12-31", GroupBy: []string{"Date"}}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Filtered.Len())
	assert.False(t, res.HasAdvisory(FilterWarning))
}

func TestRunPieNeedsOneGroup(t *testing.T) {
	res, err := Run(sales(), defaults(Selection{GroupBy: []string{"Produit", "Region"}, Chart: "pie"}))
	require.NoError(t, err)
	assert.True(t, res.HasAdvisory(UnsupportedPieGrouping))
	assert.Nil(t, res.Chart)
	assert.NotNil(t, res.Grouped, "aggregation still runs")
	assert.Equal(t, 3, res.Filtered.Len(), "filtered data stays exportable")
}

func TestRunExportAfterCategoricalFilter(t *testing.T) {
	res, err := Run(sales(), defaults(Selection{Categories: []string{"A"}, GroupBy: []string{"Region"}, Chart: "lines"}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dataset.WriteCSV(&buf, res.Filtered, dataset.ExportOptions{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Produit,Region,Ventes", lines[0])
	for _, l := range lines[1:] {
		assert.Equal(t, "A", strings.Split(l, ",")[1], l)
	}
}

func TestRunAdvisories(t *testing.T) {
	text := dataset.FromRecords("x", []string{"Produit", "Note"}, [][]string{{"A", "ok"}}, dataset.ParseOptions{})
	tests := []struct {
		name string
		ds   *dataset.Dataset
		sel  Selection
		want AdvisoryKind
	}{
		{"no numeric column", text, Selection{GroupBy: []string{"Produit"}}, NoNumericColumn},
		{"no grouping", sales(), Selection{}, NoGroupingSelected},
		{"text value column", sales(), Selection{ValueColumn: "Region", GroupBy: []string{"Produit"}}, InvalidValueColumn},
		{"unknown group", sales(), Selection{GroupBy: []string{"Pays"}}, InvalidGrouping},
		{"value as group", sales(), Selection{GroupBy: []string{"Ventes"}}, InvalidGrouping},
		{"missing date column", sales(), Selection{DateColumn: "Jour", GroupBy: []string{"Produit"}}, ""},
		{"nothing matches", sales(), Selection{Categories: []string{"Z"}, GroupBy: []string{"Produit"}}, NoMatchingRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(tt.ds, defaults(tt.sel))
			require.NoError(t, err)
			require.NotNil(t, res.Filtered)
			if tt.want == "" {
				assert.Empty(t, res.Advisories)
				return
			}
			assert.True(t, res.HasAdvisory(tt.want), "advisories: %+v", res.Advisories)
			assert.Nil(t, res.Chart)
		})
	}
}

func TestRunDefaultValueSkipsGroupColumn(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Annee", "Ventes"},
		[][]string{{"2023", "10"}, {"2024", "5"}, {"2023", "1"}}, dataset.ParseOptions{})
	res, err := Run(ds, Selection{GroupBy: []string{"Annee"}})
	require.NoError(t, err)
	assert.Empty(t, res.Advisories)
	assert.Equal(t, "Ventes", res.Selection.ValueColumn)
	assert.Equal(t, [][]string{{"2023", "11"}, {"2024", "5"}}, res.Grouped.Head(-1))
	require.NotNil(t, res.Chart)
	assert.Equal(t, "Ventes par Annee", res.Chart.Title)
}

func TestRunPieGroupingReportedBeforeEmptyResult(t *testing.T) {
	res, err := Run(sales(), defaults(Selection{Categories: []string{"Z"}, GroupBy: []string{"Produit", "Region"}, Chart: "pie"}))
	require.NoError(t, err)
	assert.True(t, res.HasAdvisory(UnsupportedPieGrouping), "advisories: %+v", res.Advisories)
	assert.False(t, res.HasAdvisory(NoMatchingRows))
	assert.Equal(t, 0, res.Filtered.Len())
}

func TestRunDoesNotMutateInput(t *testing.T) {
	ds := sales()
	before := ds.Head(-1)
	_, err := Run(ds, defaults(Selection{Categories: []string{"B"}, GroupBy: []string{"Produit"}}))
	require.NoError(t, err)
	assert.Equal(t, before, ds.Head(-1))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		sel    Selection
		fields []string
	}{
		{"ok", Selection{DateFrom: "2024-01-01", DateTo: "2024-02-01", Chart: "pie", GroupBy: []string{"a"}}, nil},
		{"bad date", Selection{DateFrom: "01/02/2024"}, []string{"date_from"}},
		{"reversed range", Selection{DateFrom: "2024-02-01", DateTo: "2024-01-01"}, []string{"date_to"}},
		{"bad chart", Selection{Chart: "donut"}, []string{"chart"}},
		{"blank group", Selection{GroupBy: []string{""}}, []string{"group_by[0]"}},
		{"repeated group", Selection{GroupBy: []string{"a", "a"}}, []string{"group_by"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sel)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "err = %v", err)
			var got []string
			for _, fe := range ve.Errors {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)

			_, runErr := Run(sales(), tt.sel)
			assert.ErrorAs(t, runErr, &ve)
		})
	}
}

func TestDescribe(t *testing.T) {
	c := Describe(sales(), "Date", "Produit")
	assert.Equal(t, []string{"Ventes"}, c.NumericColumns)
	assert.Equal(t, "2024-01-05", c.DateMin)
	assert.Equal(t, "2024-02-15", c.DateMax)
	assert.Equal(t, []string{"A", "B"}, c.Categories)

	c = Describe(sales(), "Jour", "Categorie")
	assert.Empty(t, c.DateColumn)
	assert.Empty(t, c.Categories)
}
