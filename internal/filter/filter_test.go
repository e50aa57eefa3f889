package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

func sales() *dataset.Dataset {
	return dataset.FromRecords("ventes.csv",
		[]string{"Date", "Produit", "Ventes"},
		[][]string{
			{"2024-01-05", "A", "10"},
			{"2024-02-10", "B", "7"},
			{"2024-02-15", "A", "5"},
			{"2024-03-01", "", "4"},
			{"2024-03-20", "C", "1"},
		}, dataset.ParseOptions{})
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func column(t *testing.T, ds *dataset.Dataset, name string) []string {
	t.Helper()
	col, ok := ds.Column(name)
	require.True(t, ok, "column %s", name)
	out := make([]string, col.Len())
	for i, c := range col.Cells {
		out[i] = c.Raw
	}
	return out
}

func TestDateRangeInclusive(t *testing.T) {
	ds := sales()
	got, warnings := Apply(ds, DateRange{Column: "Date", Start: date("2024-02-10"), End: date("2024-03-01")})
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"2024-02-10", "2024-02-15", "2024-03-01"}, column(t, got, "Date"))
}

func TestDateRangeComparesCalendarDays(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Date"}, [][]string{{"2024-02-10 18:30"}, {"2024-02-11 00:00"}}, dataset.ParseOptions{})
	got, _ := Apply(ds, DateRange{Column: "Date", Start: date("2024-02-10"), End: date("2024-02-10")})
	assert.Equal(t, 1, got.Len())
}

func TestDateRangeDropsUnparseable(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Date", "Ventes"}, [][]string{
		{"2024-01-01", "1"},
		{"not-a-date", "2"},
	}, dataset.ParseOptions{})
	got, warnings := Apply(ds, DateRange{Column: "Date", Start: date("2023-01-01"), End: date("2025-01-01")})
	assert.Empty(t, warnings)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, []string{"2024-01-01"}, column(t, got, "Date"))
}

func TestDateRangeOnTextColumn(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Date"}, [][]string{{"2024-01-01"}, {"soon"}, {"later"}, {"never"}}, dataset.ParseOptions{})
	c, _ := ds.Column("Date")
	require.Equal(t, dataset.KindText, c.Kind)
	got, warnings := Apply(ds, DateRange{Column: "Date", Start: date("2024-01-01"), End: date("2024-01-01")})
	assert.Empty(t, warnings)
	assert.Equal(t, 1, got.Len())
}

func TestWarningsSkipStep(t *testing.T) {
	ds := sales()
	noDates := dataset.FromRecords("x", []string{"Date"}, [][]string{{"soon"}, {"later"}}, dataset.ParseOptions{})

	tests := []struct {
		name string
		ds   *dataset.Dataset
		f    Filter
		rows int
	}{
		{"missing date column", ds, DateRange{Column: "Jour", Start: date("2024-01-01"), End: date("2024-01-02")}, 5},
		{"no parseable date", noDates, DateRange{Column: "Date"}, 2},
		{"missing category column", ds, Categorical{Column: "Region", Allowed: []string{"Nord"}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := Apply(tt.ds, tt.f)
			require.Len(t, warnings, 1)
			assert.NotEmpty(t, warnings[0].Message)
			assert.Equal(t, tt.rows, got.Len())
		})
	}
}

func TestCategoricalNullNeverPasses(t *testing.T) {
	got, _ := Apply(sales(), Categorical{Column: "Produit", Allowed: []string{"A", ""}})
	assert.Equal(t, []string{"A", "A"}, column(t, got, "Produit"))
}

func TestApplySubsetAndIdempotent(t *testing.T) {
	ds := sales()
	filters := []Filter{
		DateRange{Column: "Date", Start: date("2024-01-01"), End: date("2024-02-28")},
		Categorical{Column: "Produit", Allowed: []string{"A"}},
	}
	once, _ := Apply(ds, filters...)
	twice, _ := Apply(once, filters...)

	assert.LessOrEqual(t, once.Len(), ds.Len())
	assert.Equal(t, once.Head(-1), twice.Head(-1))

	src := map[string]bool{}
	for _, r := range ds.Head(-1) {
		src[r[0]+"|"+r[1]+"|"+r[2]] = true
	}
	for _, r := range once.Head(-1) {
		assert.True(t, src[r[0]+"|"+r[1]+"|"+r[2]], "row %v not in source", r)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	ds := sales()
	before := ds.Head(-1)
	got, _ := Apply(ds)
	got.Columns[0].Cells[0].Raw = "changed"
	assert.Equal(t, before, ds.Head(-1))
}

func TestOptions(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, Options(sales(), "Produit"))
	assert.Equal(t, []string{"1", "4", "5", "7", "10"}, Options(sales(), "Ventes"))
	assert.Nil(t, Options(sales(), "Missing"))
}

func TestDateBounds(t *testing.T) {
	lo, hi, ok := DateBounds(sales(), "Date")
	require.True(t, ok)
	assert.Equal(t, date("2024-01-05"), lo)
	assert.Equal(t, date("2024-03-20"), hi)

	_, _, ok = DateBounds(sales(), "Produit")
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	ds := sales()
	from := date("2024-02-01")

	steps := Build(ds, Criteria{DateColumn: "Date", From: &from, CategoryColumn: "Produit", Categories: []string{"A"}})
	require.Len(t, steps, 2)
	dr, ok := steps[0].(DateRange)
	require.True(t, ok)
	assert.Equal(t, from, dr.Start)
	assert.Equal(t, date("2024-03-20"), dr.End)
	assert.IsType(t, Categorical{}, steps[1])

	got, _ := Apply(ds, steps...)
	assert.Equal(t, []string{"2024-02-15"}, column(t, got, "Date"))

	assert.Len(t, Build(ds, Criteria{DateColumn: "Jour", CategoryColumn: "Produit"}), 0)
}

func TestCategoricalMatchesExactValue(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Produit", "Ventes"},
		[][]string{{"A", "10"}, {"A ", "5"}, {"B", "1"}}, dataset.ParseOptions{})

	got, warn := Apply(ds, Categorical{Column: "Produit", Allowed: []string{"A"}})
	assert.Nil(t, warn)
	assert.Equal(t, []string{"A"}, column(t, got, "Produit"))

	got, _ = Apply(ds, Categorical{Column: "Produit", Allowed: []string{"A "}})
	assert.Equal(t, []string{"A "}, column(t, got, "Produit"))

	assert.Equal(t, []string{"A", "A ", "B"}, Options(ds, "Produit"))
}
