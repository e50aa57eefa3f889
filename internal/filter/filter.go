// Package filter narrows a dataset by date range and categorical membership.
package filter

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

// Warning reports a filter step that could not be applied. The step is
// skipped and the dataset passes through unchanged.
type Warning struct {
	Column  string `json:"column"`
	Message string `json:"message"`
}

func (w Warning) String() string { return w.Message }

// Filter keeps a subset of rows. Keep returns the kept row indices in order,
// or a warning when the filter cannot run against ds.
type Filter interface {
	Keep(ds *dataset.Dataset) ([]int, *Warning)
}

// DateRange keeps rows whose date falls in [Start, End], compared by calendar
// day. Rows with a missing or unparseable date are dropped.
type DateRange struct {
	Column string
	Start  time.Time
	End    time.Time
}

// Categorical keeps rows whose value is one of Allowed. Missing values never pass.
type Categorical struct {
	Column  string
	Allowed []string
}

// Apply runs the filters in order and returns a new dataset. The input is not
// modified.
func Apply(ds *dataset.Dataset, filters ...Filter) (*dataset.Dataset, []Warning) {
	var warnings []Warning
	cur := ds
	for _, f := range filters {
		rows, w := f.Keep(cur)
		if w != nil {
			warnings = append(warnings, *w)
			continue
		}
		cur = cur.Select(rows)
	}
	if cur == ds {
		cur = ds.Clone()
	}
	return cur, warnings
}

func (f DateRange) Keep(ds *dataset.Dataset) ([]int, *Warning) {
	col, ok := ds.Column(f.Column)
	if !ok {
		return nil, &Warning{Column: f.Column, Message: fmt.Sprintf("date filter skipped: column %q not found", f.Column)}
	}
	times, parsed := columnTimes(col)
	if parsed == 0 {
		return nil, &Warning{Column: f.Column, Message: fmt.Sprintf("date filter skipped: no value of column %q parses as a date", f.Column)}
	}
	lo, hi := day(f.Start), day(f.End)
	var keep []int
	for i, t := range times {
		if t.IsZero() {
			continue
		}
		d := day(t)
		if (f.Start.IsZero() || !d.Before(lo)) && (f.End.IsZero() || !d.After(hi)) {
			keep = append(keep, i)
		}
	}
	return keep, nil
}

func (f Categorical) Keep(ds *dataset.Dataset) ([]int, *Warning) {
	col, ok := ds.Column(f.Column)
	if !ok {
		return nil, &Warning{Column: f.Column, Message: fmt.Sprintf("category filter skipped: column %q not found", f.Column)}
	}
	allowed := make(map[string]struct{}, len(f.Allowed))
	for _, v := range f.Allowed {
		allowed[v] = struct{}{}
	}
	var keep []int
	for i, cell := range col.Cells {
		if dataset.IsNullToken(cell.Raw) {
			continue
		}
		if _, ok := allowed[cell.Raw]; ok {
			keep = append(keep, i)
		}
	}
	return keep, nil
}

// Options lists the distinct non-null values of a column, sorted. Numeric
// columns sort by value, everything else lexically.
func Options(ds *dataset.Dataset, column string) []string {
	col, ok := ds.Column(column)
	if !ok {
		return nil
	}
	seen := map[string]float64{}
	var out []string
	for _, cell := range col.Cells {
		v := cell.Raw
		if dataset.IsNullToken(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = cell.Num
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if col.Kind == dataset.KindNumeric && seen[out[i]] != seen[out[j]] {
			return seen[out[i]] < seen[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// DateBounds returns the earliest and latest parseable date of a column.
func DateBounds(ds *dataset.Dataset, column string) (lo, hi time.Time, ok bool) {
	col, found := ds.Column(column)
	if !found {
		return time.Time{}, time.Time{}, false
	}
	times, parsed := columnTimes(col)
	if parsed == 0 {
		return time.Time{}, time.Time{}, false
	}
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if lo.IsZero() || t.Before(lo) {
			lo = t
		}
		if hi.IsZero() || t.After(hi) {
			hi = t
		}
	}
	return lo, hi, true
}

// columnTimes parses every cell as a date. Datetime columns reuse the parsed
// value; other kinds are parsed from the raw text so that a column inferred
// as text can still be date-filtered. Zero times mark unparseable cells.
func columnTimes(col *dataset.Column) ([]time.Time, int) {
	out := make([]time.Time, len(col.Cells))
	n := 0
	for i, cell := range col.Cells {
		if col.Kind == dataset.KindDatetime {
			if !cell.Null {
				out[i] = cell.Time
				n++
			}
			continue
		}
		if t, ok := dataset.ParseTime(cell.Raw); ok {
			out[i] = t
			n++
		}
	}
	return out, n
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
