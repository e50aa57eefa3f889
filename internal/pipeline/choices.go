package pipeline

import (
	"github.com/KaramelBytes/tabviz/internal/dataset"
	"github.com/KaramelBytes/tabviz/internal/filter"
)

// Choices lists what a user can pick for a dataset.
type Choices struct {
	Columns        []string `json:"columns"`
	NumericColumns []string `json:"numeric_columns"`
	DateColumn     string   `json:"date_column,omitempty"`
	DateMin        string   `json:"date_min,omitempty"`
	DateMax        string   `json:"date_max,omitempty"`
	CategoryColumn string   `json:"category_column,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Charts         []string `json:"charts"`
}

// Describe computes the choices offered for ds. Distinguished columns that
// are absent are left empty.
func Describe(ds *dataset.Dataset, dateColumn, categoryColumn string) Choices {
	c := Choices{
		Columns:        ds.Names(),
		NumericColumns: ds.NumericColumns(),
		Charts:         []string{"bars", "lines", "pie"},
	}
	if lo, hi, ok := filter.DateBounds(ds, dateColumn); ok {
		c.DateColumn = dateColumn
		c.DateMin = lo.Format(DateLayout)
		c.DateMax = hi.Format(DateLayout)
	}
	if ds.Has(categoryColumn) {
		c.CategoryColumn = categoryColumn
		c.Categories = filter.Options(ds, categoryColumn)
	}
	return c
}
