package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

const (
	// ExportFilename is the default name offered for the filtered-data download.
	ExportFilename = "donnees_filtrees.csv"
	// ExportContentType is the mime type of the download.
	ExportContentType = "text/csv; charset=utf-8"
)

// ExportOptions configures CSV writing behavior
type ExportOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
	Comma     rune // defaults to ','
}

// WriteCSV writes the header and every row's raw values as UTF-8 CSV.
func WriteCSV(w io.Writer, d *Dataset, opt ExportOptions) error {
	if opt.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if opt.Comma != 0 {
		cw.Comma = opt.Comma
	}
	if err := cw.Write(d.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < d.Len(); i++ {
		if err := cw.Write(d.Row(i)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
