package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseOptions controls how raw text cells are typed.
type ParseOptions struct {
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, drop common separators other than the decimal one
}

// FromRecords builds a dataset from a header and raw rows, inferring each
// column's kind by the predominant parsed type of its non-null values.
// Short rows are padded with empty cells; header names are made unique.
func FromRecords(name string, header []string, rows [][]string, opt ParseOptions) *Dataset {
	names := uniqueNames(header)
	ds := &Dataset{Name: name, Columns: make([]*Column, len(names))}
	raw := make([]string, len(rows))
	for j, n := range names {
		for i, rec := range rows {
			if j < len(rec) {
				raw[i] = rec[j]
			} else {
				raw[i] = ""
			}
		}
		ds.Columns[j] = InferColumn(n, raw, opt)
	}
	return ds
}

// InferColumn types a column of raw values.
func InferColumn(name string, raw []string, opt ParseOptions) *Column {
	var numCnt, dtCnt, txtCnt int
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if IsNullToken(v) {
			continue
		}
		if _, ok := ParseNumber(v, opt); ok {
			numCnt++
			continue
		}
		if _, ok := ParseTime(v); ok {
			dtCnt++
			continue
		}
		txtCnt++
	}
	kind := KindText
	if numCnt >= dtCnt && numCnt >= txtCnt && numCnt > 0 {
		kind = KindNumeric
	} else if dtCnt >= txtCnt && dtCnt > 0 {
		kind = KindDatetime
	}

	col := &Column{Name: name, Kind: kind, Cells: make([]Cell, len(raw))}
	for i, v := range raw {
		cell := Cell{Raw: v}
		t := strings.TrimSpace(v)
		switch {
		case IsNullToken(t):
			cell.Null = true
		case kind == KindNumeric:
			x, ok := ParseNumber(t, opt)
			cell.Num, cell.Null = x, !ok
		case kind == KindDatetime:
			ts, ok := ParseTime(t)
			cell.Time, cell.Null = ts, !ok
		}
		col.Cells[i] = cell
	}
	return col
}

var nullTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {},
}

// IsNullToken reports whether a trimmed raw value denotes a missing value.
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"02/01/2006 15:04", "02/01/2006 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"02.01.2006", "01-02-06", "1/2/06", "2-Jan-2006", "Jan-2006",
}

// ParseTime tries the supported date layouts in order; day-first wins over
// month-first for ambiguous slash dates.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a locale-formatted number. A trailing or embedded '%'
// is ignored.
func ParseNumber(s string, opt ParseOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
