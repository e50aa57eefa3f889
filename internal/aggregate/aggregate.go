// Package aggregate groups a dataset by one or more columns and sums a
// numeric column per group.
package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

var (
	ErrNoGroupingSelected = errors.New("no grouping column selected")
	ErrNotNumeric         = errors.New("value column is not numeric")
	ErrUnknownColumn      = errors.New("unknown column")
	ErrInvalidSpec        = errors.New("invalid aggregation")
)

// Spec names the value column to sum and the columns to group by.
type Spec struct {
	ValueColumn  string   `json:"value_column"`
	GroupColumns []string `json:"group_columns"`
}

// Validate checks spec against ds without aggregating.
func (s Spec) Validate(ds *dataset.Dataset) error {
	if len(s.GroupColumns) == 0 {
		return ErrNoGroupingSelected
	}
	vc, ok := ds.Column(s.ValueColumn)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, s.ValueColumn)
	}
	if vc.Kind != dataset.KindNumeric {
		return fmt.Errorf("%w: %q is %s", ErrNotNumeric, s.ValueColumn, vc.Kind)
	}
	seen := make(map[string]struct{}, len(s.GroupColumns))
	for _, g := range s.GroupColumns {
		if !ds.Has(g) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, g)
		}
		if g == s.ValueColumn {
			return fmt.Errorf("%w: %q is both value and group column", ErrInvalidSpec, g)
		}
		if _, dup := seen[g]; dup {
			return fmt.Errorf("%w: group column %q repeated", ErrInvalidSpec, g)
		}
		seen[g] = struct{}{}
	}
	return nil
}

// Sum partitions ds by the exact tuple of group values and sums ValueColumn
// over each partition. The result has columns GroupColumns then ValueColumn,
// one row per tuple in order of first occurrence. Missing group values form
// their own group; missing numbers add nothing.
func Sum(ds *dataset.Dataset, spec Spec) (*dataset.Dataset, error) {
	if err := spec.Validate(ds); err != nil {
		return nil, err
	}
	vc, _ := ds.Column(spec.ValueColumn)
	groups := make([]*dataset.Column, len(spec.GroupColumns))
	for i, g := range spec.GroupColumns {
		groups[i], _ = ds.Column(g)
	}

	index := map[string]int{}
	var firstRow []int
	var totals []float64
	for r := 0; r < ds.Len(); r++ {
		k := key(groups, r)
		idx, ok := index[k]
		if !ok {
			idx = len(firstRow)
			index[k] = idx
			firstRow = append(firstRow, r)
			totals = append(totals, 0)
		}
		if cell := vc.Cells[r]; !cell.Null {
			totals[idx] += cell.Num
		}
	}

	cols := make([]*dataset.Column, 0, len(groups)+1)
	for _, g := range groups {
		cells := make([]dataset.Cell, len(firstRow))
		for i, r := range firstRow {
			cells[i] = g.Cells[r]
		}
		cols = append(cols, &dataset.Column{Name: g.Name, Kind: g.Kind, Cells: cells})
	}
	sums := make([]dataset.Cell, len(totals))
	for i, v := range totals {
		sums[i] = dataset.Cell{Raw: dataset.FormatNumber(v), Num: v}
	}
	cols = append(cols, &dataset.Column{Name: vc.Name, Kind: dataset.KindNumeric, Cells: sums})
	return dataset.New(ds.Name, cols...)
}

// key encodes a row's group tuple; nulls get a marker no raw value can produce.
func key(groups []*dataset.Column, r int) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		c := g.Cells[r]
		if c.Null && dataset.IsNullToken(c.Raw) {
			b.WriteByte(0)
			continue
		}
		b.WriteString(c.Raw)
	}
	return b.String()
}
