// Package pipeline threads a Selection through filter, aggregation and the
// chart policy for one interaction.
package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/KaramelBytes/tabviz/internal/aggregate"
	"github.com/KaramelBytes/tabviz/internal/chart"
	"github.com/KaramelBytes/tabviz/internal/dataset"
	"github.com/KaramelBytes/tabviz/internal/filter"
)

// AdvisoryKind classifies a non-fatal condition shown to the user.
type AdvisoryKind string

const (
	FilterWarning          AdvisoryKind = "FilterWarning"
	NoNumericColumn        AdvisoryKind = "NoNumericColumn"
	NoGroupingSelected     AdvisoryKind = "NoGroupingSelected"
	UnsupportedPieGrouping AdvisoryKind = "UnsupportedPieGrouping"
	InvalidValueColumn     AdvisoryKind = "InvalidValueColumn"
	InvalidGrouping        AdvisoryKind = "InvalidGrouping"
	NoMatchingRows         AdvisoryKind = "NoMatchingRows"
)

// Advisory never aborts preview or export; it only suppresses the steps
// after the one that raised it.
type Advisory struct {
	Kind    AdvisoryKind `json:"kind"`
	Message string       `json:"message"`
}

// Result is everything one interaction produces. Grouped and Chart are nil
// when an advisory stopped the run before them.
type Result struct {
	Selection  Selection        `json:"selection"`
	Filtered   *dataset.Dataset `json:"-"`
	Grouped    *dataset.Dataset `json:"-"`
	Chart      *chart.Spec      `json:"chart,omitempty"`
	Advisories []Advisory       `json:"advisories"`
}

// HasAdvisory reports whether an advisory of the given kind was raised.
func (r *Result) HasAdvisory(kind AdvisoryKind) bool {
	for _, a := range r.Advisories {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

func (r *Result) advise(kind AdvisoryKind, format string, args ...any) {
	r.Advisories = append(r.Advisories, Advisory{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Run filters ds (date, then category), sums the value column by the
// selected groups and builds the chart spec. ds is never modified. Only an
// invalid selection is an error; data-dependent problems become advisories.
func Run(ds *dataset.Dataset, sel Selection) (*Result, error) {
	if err := Validate(sel); err != nil {
		return nil, err
	}
	if sel.Chart == "" {
		sel.Chart = string(chart.Bars)
	}
	res := &Result{Selection: sel}

	from, to := sel.dateRange()
	steps := filter.Build(ds, filter.Criteria{
		DateColumn:     sel.DateColumn,
		From:           from,
		To:             to,
		CategoryColumn: sel.CategoryColumn,
		Categories:     sel.Categories,
	})
	filtered, warnings := filter.Apply(ds, steps...)
	res.Filtered = filtered
	for _, w := range warnings {
		res.advise(FilterWarning, "%s", w.Message)
	}

	numeric := ds.NumericColumns()
	if len(numeric) == 0 {
		res.advise(NoNumericColumn, "no numeric column to aggregate")
		return res, nil
	}
	if sel.ValueColumn == "" {
		sel.ValueColumn = defaultValueColumn(numeric, sel.GroupBy)
		res.Selection.ValueColumn = sel.ValueColumn
	} else if !slices.Contains(numeric, sel.ValueColumn) {
		res.advise(InvalidValueColumn, "column %q is not numeric; choose one of %v", sel.ValueColumn, numeric)
		return res, nil
	}
	if len(sel.GroupBy) == 0 {
		res.advise(NoGroupingSelected, "select at least one column to group by")
		return res, nil
	}

	spec := aggregate.Spec{ValueColumn: sel.ValueColumn, GroupColumns: sel.GroupBy}
	grouped, err := aggregate.Sum(filtered, spec)
	switch {
	case errors.Is(err, aggregate.ErrUnknownColumn), errors.Is(err, aggregate.ErrInvalidSpec):
		res.advise(InvalidGrouping, "%v", err)
		return res, nil
	case err != nil:
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	res.Grouped = grouped

	req := chart.Request{
		Type:         chart.Type(sel.Chart),
		Grouped:      grouped,
		GroupColumns: sel.GroupBy,
		ValueColumn:  sel.ValueColumn,
	}
	if err := chart.Validate(req); errors.Is(err, chart.ErrUnsupportedPieGrouping) {
		res.advise(UnsupportedPieGrouping, "pie charts need exactly one grouping column (got %d)", len(sel.GroupBy))
		return res, nil
	}
	if grouped.Len() == 0 {
		res.advise(NoMatchingRows, "no rows match the current filters")
		return res, nil
	}

	cs, err := chart.Build(req)
	if err != nil {
		return nil, fmt.Errorf("build chart: %w", err)
	}
	res.Chart = cs
	return res, nil
}

// defaultValueColumn picks the first numeric column not used for grouping,
// falling back to the first numeric column.
func defaultValueColumn(numeric, groupBy []string) string {
	for _, name := range numeric {
		if !slices.Contains(groupBy, name) {
			return name
		}
	}
	return numeric[0]
}
