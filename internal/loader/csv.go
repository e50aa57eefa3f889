package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvLoader) Load(data []byte, opt Options) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &LoadError{Message: "no header row", Err: ErrEmpty}
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if len(rec) > ncol {
			line, _ := r.FieldPos(0)
			return nil, nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, ncol, len(rec))
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// sniffDelimiter picks the most frequent of ',', ';' and tab on the first
// line, ignoring quoted sections. Defaults to comma.
func sniffDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !sc.Scan() {
		return ','
	}
	counts := map[rune]int{}
	inQuotes := false
	for _, ch := range sc.Text() {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case ch == ',' || ch == ';' || ch == '\t':
			counts[ch]++
		}
	}
	best := ','
	for _, cand := range []rune{';', '\t'} {
		if counts[cand] > counts[best] {
			best = cand
		}
	}
	return best
}
