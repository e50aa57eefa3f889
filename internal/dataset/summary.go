package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // numeric|datetime|categorical|text
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Datetime range
	Earliest time.Time `json:"earliest,omitempty"`
	Latest   time.Time `json:"latest,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"example_texts,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Describe summarizes every column of the dataset.
func Describe(d *Dataset) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(d.Columns))
	for _, c := range d.Columns {
		out = append(out, describeColumn(c))
	}
	return out
}

func describeColumn(c *Column) ColumnSummary {
	s := ColumnSummary{Name: c.Name, Kind: string(c.Kind)}
	// Welford for mean/std
	var n int
	var mean, m2 float64
	lo, hi := math.Inf(1), math.Inf(-1)
	cats := map[string]int{}
	for _, cell := range c.Cells {
		if cell.Null {
			s.Missing++
			continue
		}
		s.NonNull++
		switch c.Kind {
		case KindNumeric:
			x := cell.Num
			n++
			if x < lo {
				lo = x
			}
			if x > hi {
				hi = x
			}
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
		case KindDatetime:
			if s.Earliest.IsZero() || cell.Time.Before(s.Earliest) {
				s.Earliest = cell.Time
			}
			if cell.Time.After(s.Latest) {
				s.Latest = cell.Time
			}
		default:
			v := strings.TrimSpace(cell.Raw)
			if len(cats) <= 10000 && len(v) <= 64 {
				cats[v]++
			}
			if len(s.ExampleTexts) < 3 {
				s.ExampleTexts = append(s.ExampleTexts, v)
			}
		}
	}
	if c.Kind == KindNumeric && n > 0 {
		s.Min, s.Max, s.Mean = lo, hi, mean
		if n > 1 {
			s.Std = math.Sqrt(m2 / float64(n-1))
		}
	}
	if c.Kind == KindText && len(cats) > 0 {
		s.Kind = "categorical"
		s.ExampleTexts = nil
		tops := make([]CategoryCount, 0, len(cats))
		for k, v := range cats {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
		s.Unique = len(cats)
	}
	return s
}

// Markdown renders a compact schema plus the first sampleRows rows.
func Markdown(d *Dataset, sampleRows int) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if d.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", d.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", d.Len()))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(d.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range Describe(d) {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case string(KindNumeric):
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			}
		case string(KindDatetime):
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(" — from %s to %s", c.Earliest.Format("2006-01-02"), c.Latest.Format("2006-01-02")))
			}
		case "categorical":
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		case string(KindText):
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if rows := d.Head(sampleRows); len(rows) > 0 {
		b.WriteString("\n[HEAD]\n")
		b.WriteString(Table(d.Names(), rows))
	}
	if len(d.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range d.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Table renders rows as a markdown table.
func Table(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(h))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			b.WriteString(safeVal(truncate(val, 80)))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
