// Package chart decides which charts a grouped result supports, builds a
// renderer-neutral description of the chart, and draws it.
package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

// Type is a chart kind.
type Type string

const (
	Bars  Type = "bars"
	Lines Type = "lines"
	Pie   Type = "pie"
)

var (
	ErrUnknownType            = errors.New("unknown chart type")
	ErrUnsupportedPieGrouping = errors.New("pie chart needs exactly one grouping column")
	ErrNoGroupingSelected     = errors.New("no grouping column selected")
	ErrMissingColumn          = errors.New("column missing from grouped result")
)

var typeAliases = map[string]Type{
	"bars": Bars, "bar": Bars, "barres": Bars, "histogram": Bars,
	"lines": Lines, "line": Lines, "lignes": Lines, "courbes": Lines,
	"pie": Pie, "camembert": Pie, "circulaire": Pie,
}

// ParseType accepts the canonical names plus a few aliases, case-insensitive.
func ParseType(s string) (Type, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q (want bars, lines or pie)", ErrUnknownType, s)
}

// Request asks for a chart of a grouped result.
type Request struct {
	Type         Type
	Grouped      *dataset.Dataset
	GroupColumns []string
	ValueColumn  string
}

// Validate applies the chart selection policy. Pie takes exactly one
// grouping column; bars and lines use the first as X and the second, if
// any, as the color dimension. Further columns are accepted but unused.
func Validate(req Request) error {
	switch req.Type {
	case Bars, Lines, Pie:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
	if len(req.GroupColumns) == 0 {
		return ErrNoGroupingSelected
	}
	if req.Type == Pie && len(req.GroupColumns) != 1 {
		return fmt.Errorf("%w (got %d)", ErrUnsupportedPieGrouping, len(req.GroupColumns))
	}
	if req.Grouped == nil {
		return fmt.Errorf("%w: no data", ErrMissingColumn)
	}
	for _, name := range append([]string{req.ValueColumn}, req.GroupColumns...) {
		if !req.Grouped.Has(name) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return nil
}
