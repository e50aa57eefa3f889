package chart

import (
	"fmt"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

// BlankLabel stands in for a missing group value on axes and legends.
const BlankLabel = "(empty)"

// Spec is a renderer-neutral chart description.
type Spec struct {
	Type       Type     `json:"type"`
	Title      string   `json:"title"`
	XLabel     string   `json:"x_label"`
	YLabel     string   `json:"y_label"`
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// Series is one colored set of points. Index refers to Categories.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

type Point struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Build validates req and lays the grouped rows out as categories and series.
// With a second grouping column each of its values becomes a series;
// otherwise a single series is named after the value column.
func Build(req Request) (*Spec, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	g := req.Grouped
	xcol, _ := g.Column(req.GroupColumns[0])
	vcol, _ := g.Column(req.ValueColumn)
	var colorCol *dataset.Column
	if req.Type != Pie && len(req.GroupColumns) > 1 {
		colorCol, _ = g.Column(req.GroupColumns[1])
	}

	s := &Spec{
		Type:   req.Type,
		Title:  fmt.Sprintf("%s par %s", req.ValueColumn, req.GroupColumns[0]),
		XLabel: req.GroupColumns[0],
		YLabel: req.ValueColumn,
	}
	catIndex := map[string]int{}
	seriesIndex := map[string]int{}
	for r := 0; r < g.Len(); r++ {
		label := cellLabel(xcol.Cells[r])
		ci, ok := catIndex[label]
		if !ok {
			ci = len(s.Categories)
			catIndex[label] = ci
			s.Categories = append(s.Categories, label)
		}
		name := req.ValueColumn
		if colorCol != nil {
			name = cellLabel(colorCol.Cells[r])
		}
		si, ok := seriesIndex[name]
		if !ok {
			si = len(s.Series)
			seriesIndex[name] = si
			s.Series = append(s.Series, Series{Name: name})
		}
		v := vcol.Cells[r].Num
		ser := &s.Series[si]
		// a third grouping column can repeat an (x, color) pair
		if mergePoint(ser, ci, v) {
			continue
		}
		ser.Points = append(ser.Points, Point{Index: ci, Label: label, Value: v})
	}
	return s, nil
}

func mergePoint(s *Series, idx int, v float64) bool {
	for i := range s.Points {
		if s.Points[i].Index == idx {
			s.Points[i].Value += v
			return true
		}
	}
	return false
}

func cellLabel(c dataset.Cell) string {
	if c.Null && dataset.IsNullToken(c.Raw) {
		return BlankLabel
	}
	return c.Raw
}
