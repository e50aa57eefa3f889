package dataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the inferred semantic type of a column.
type Kind string

const (
	KindNumeric  Kind = "numeric"
	KindDatetime Kind = "datetime"
	KindText     Kind = "text"
)

// Cell holds one value: the raw text as loaded plus its parsed form.
// Null is set for missing values and for values that failed to parse
// under the column's kind; Raw is kept either way.
type Cell struct {
	Raw  string
	Num  float64
	Time time.Time
	Null bool
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.Cells) }

// Sum adds up the non-null numeric cells. Non-numeric columns sum to zero.
func (c *Column) Sum() float64 {
	if c.Kind != KindNumeric {
		return 0
	}
	var total float64
	for _, cell := range c.Cells {
		if !cell.Null {
			total += cell.Num
		}
	}
	return total
}

// Dataset is an ordered set of uniquely named columns sharing one row count.
// Datasets are treated as immutable: every transformation builds a new one.
type Dataset struct {
	Name     string
	Columns  []*Column
	Warnings []string
}

var (
	ErrRowMismatch     = errors.New("columns have different row counts")
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// New assembles a dataset, rejecting duplicate names and ragged columns.
func New(name string, cols ...*Column) (*Dataset, error) {
	seen := make(map[string]struct{}, len(cols))
	rows := -1
	for _, c := range cols {
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if rows >= 0 && c.Len() != rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrRowMismatch, c.Name, c.Len(), rows)
		}
		rows = c.Len()
	}
	return &Dataset{Name: name, Columns: cols}, nil
}

// Len returns the row count.
func (d *Dataset) Len() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Has reports whether a column with the given name exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// NumericColumns returns the names of numeric columns in order.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, c := range d.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// Select returns a new dataset holding copies of the given rows, in the given order.
func (d *Dataset) Select(rows []int) *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		cells := make([]Cell, len(rows))
		for j, r := range rows {
			cells[j] = c.Cells[r]
		}
		out.Columns[i] = &Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	if len(d.Warnings) > 0 {
		out.Warnings = append([]string(nil), d.Warnings...)
	}
	return out
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	rows := make([]int, d.Len())
	for i := range rows {
		rows[i] = i
	}
	return d.Select(rows)
}

// Row returns the raw values of row i.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.Columns))
	for j, c := range d.Columns {
		out[j] = c.Cells[i].Raw
	}
	return out
}

// Head returns up to n raw rows from the top of the dataset.
func (d *Dataset) Head(n int) [][]string {
	if n > d.Len() || n < 0 {
		n = d.Len()
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = d.Row(i)
	}
	return out
}

// uniqueNames fills blank header names and suffixes repeated ones (".1", ".2", ...).
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := used[name]; ok {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := used[name]; !taken {
					break
				}
			}
			used[base] = n
		}
		used[name] = 0
		out[i] = name
	}
	return out
}
