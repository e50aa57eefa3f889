package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/tabviz/internal/dataset"
)

// Options controls loading of tabular files.
type Options struct {
	// MaxRows limits rows kept; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, auto-detects among ',', ';', '\t'.
	Delimiter rune
	// SheetName selects an XLSX sheet; empty means the first sheet.
	SheetName string
	// Parse controls numeric locale handling during type inference.
	Parse dataset.ParseOptions
}

// Loader parses one family of tabular formats.
type Loader interface {
	CanLoad(filename string) bool
	Load(data []byte, opt Options) (header []string, rows [][]string, err error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// Load parses an uploaded file into a typed dataset. The filename hint picks
// the format. Any failure is reported as a *LoadError and no dataset is returned.
func Load(data []byte, filenameHint string, opt Options) (*dataset.Dataset, error) {
	name := filepath.Base(filenameHint)
	var l Loader
	for _, candidate := range registry {
		if candidate.CanLoad(name) {
			l = candidate
			break
		}
	}
	if l == nil {
		return nil, &LoadError{File: name, Message: "unsupported file type (expected .csv or .xlsx)", Err: ErrUnsupportedFormat}
	}
	if len(data) == 0 {
		return nil, &LoadError{File: name, Message: "file is empty", Err: ErrEmpty}
	}
	header, rows, err := l.Load(data, opt)
	if err != nil {
		return nil, wrapLoadError(name, err)
	}
	if len(header) == 0 {
		return nil, &LoadError{File: name, Message: "no header row", Err: ErrEmpty}
	}
	total := len(rows)
	if opt.MaxRows > 0 && total > opt.MaxRows {
		rows = rows[:opt.MaxRows]
	}
	ds := dataset.FromRecords(name, header, rows, opt.Parse)
	if len(rows) < total {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", len(rows), total))
	}
	return ds, nil
}

// LoadFile reads a file from disk and loads it.
func LoadFile(path string, opt Options) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Load(data, path, opt)
}
