package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

func sales() *dataset.Dataset {
	return dataset.FromRecords("ventes.csv",
		[]string{"Produit", "Region", "Ventes", "Note"},
		[][]string{
			{"A", "Nord", "10", "ok"},
			{"B", "Nord", "7", "ok"},
			{"A", "Sud", "5", "ko"},
			{"", "Sud", "2", "ok"},
			{"B", "Sud", "", "ok"},
		}, dataset.ParseOptions{})
}

func rows(ds *dataset.Dataset) [][]string { return ds.Head(-1) }

func TestSumScenario(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Produit", "Ventes"}, [][]string{{"A", "10"}, {"B", "7"}, {"A", "5"}}, dataset.ParseOptions{})
	got, err := Sum(ds, Spec{ValueColumn: "Ventes", GroupColumns: []string{"Produit"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "15"}, {"B", "7"}}, rows(got))
	assert.Equal(t, []string{"Produit", "Ventes"}, got.Names())
}

func TestSumMultipleGroupsFirstOccurrence(t *testing.T) {
	got, err := Sum(sales(), Spec{ValueColumn: "Ventes", GroupColumns: []string{"Region", "Produit"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Nord", "A", "10"},
		{"Nord", "B", "7"},
		{"Sud", "A", "5"},
		{"Sud", "", "2"},
		{"Sud", "B", "0"},
	}, rows(got))
}

func TestSumConservesTotal(t *testing.T) {
	ds := sales()
	vc, _ := ds.Column("Ventes")
	for _, groups := range [][]string{{"Produit"}, {"Region"}, {"Region", "Produit"}, {"Note", "Region"}} {
		got, err := Sum(ds, Spec{ValueColumn: "Ventes", GroupColumns: groups})
		require.NoError(t, err)
		sum, _ := got.Column("Ventes")
		assert.InDelta(t, vc.Sum(), sum.Sum(), 1e-9, "groups %v", groups)
	}
}

func TestSumDeterministic(t *testing.T) {
	spec := Spec{ValueColumn: "Ventes", GroupColumns: []string{"Produit", "Region"}}
	a, err := Sum(sales(), spec)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		b, err := Sum(sales(), spec)
		require.NoError(t, err)
		assert.Equal(t, rows(a), rows(b))
	}
}

func TestSumErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"no groups", Spec{ValueColumn: "Ventes"}, ErrNoGroupingSelected},
		{"text value", Spec{ValueColumn: "Note", GroupColumns: []string{"Produit"}}, ErrNotNumeric},
		{"unknown value", Spec{ValueColumn: "Prix", GroupColumns: []string{"Produit"}}, ErrUnknownColumn},
		{"unknown group", Spec{ValueColumn: "Ventes", GroupColumns: []string{"Pays"}}, ErrUnknownColumn},
		{"value as group", Spec{ValueColumn: "Ventes", GroupColumns: []string{"Ventes"}}, ErrInvalidSpec},
		{"repeated group", Spec{ValueColumn: "Ventes", GroupColumns: []string{"Produit", "Produit"}}, ErrInvalidSpec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sum(sales(), tt.spec)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, got)
		})
	}
}

func TestSumEmptyDataset(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Produit", "Ventes"}, nil, dataset.ParseOptions{})
	ds.Columns[1].Kind = dataset.KindNumeric
	got, err := Sum(ds, Spec{ValueColumn: "Ventes", GroupColumns: []string{"Produit"}})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestSumKeepsTrailingSpaceGroupsApart(t *testing.T) {
	ds := dataset.FromRecords("x", []string{"Produit", "Ventes"},
		[][]string{{"A", "10"}, {"A ", "5"}, {"B", "1"}}, dataset.ParseOptions{})
	got, err := Sum(ds, Spec{ValueColumn: "Ventes", GroupColumns: []string{"Produit"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "10"}, {"A ", "5"}, {"B", "1"}}, rows(got))
}
