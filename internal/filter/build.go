package filter

import (
	"time"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

// Criteria is the user's filter choice for the two distinguished columns.
// Nil From/To default to the column's date bounds; an empty Categories list
// disables the categorical filter.
type Criteria struct {
	DateColumn     string
	From, To       *time.Time
	CategoryColumn string
	Categories     []string
}

// Build turns criteria into the ordered filter sequence for ds: date first,
// then category. A distinguished column absent from ds contributes no step.
func Build(ds *dataset.Dataset, c Criteria) []Filter {
	var out []Filter
	if c.DateColumn != "" && ds.Has(c.DateColumn) {
		lo, hi, ok := DateBounds(ds, c.DateColumn)
		if c.From != nil {
			lo = *c.From
		}
		if c.To != nil {
			hi = *c.To
		}
		if ok || c.From != nil || c.To != nil {
			out = append(out, DateRange{Column: c.DateColumn, Start: lo, End: hi})
		} else {
			// lets Apply report the unusable column
			out = append(out, DateRange{Column: c.DateColumn})
		}
	}
	if c.CategoryColumn != "" && len(c.Categories) > 0 && ds.Has(c.CategoryColumn) {
		out = append(out, Categorical{Column: c.CategoryColumn, Allowed: c.Categories})
	}
	return out
}
