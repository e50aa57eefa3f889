package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Load reads the selected sheet (first sheet by default). The first row is
// the header; rows wider than the header get "Unnamed: N" columns.
func (xlsxLoader) Load(data []byte, opt Options) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, &LoadError{Message: "workbook has no sheets", Err: ErrEmpty}
	}
	sheet := sheets[0]
	if opt.SheetName != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, nil, &LoadError{
				Message: fmt.Sprintf("sheet '%s' not found; available sheets: %s", opt.SheetName, strings.Join(sheets, ", ")),
			}
		}
	}
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(all) == 0 {
		return nil, nil, &LoadError{Message: fmt.Sprintf("sheet '%s' is empty", sheet), Err: ErrEmpty}
	}
	header := all[0]
	var rows [][]string
	width := len(header)
	for _, r := range all[1:] {
		if blankRow(r) {
			continue
		}
		if len(r) > width {
			width = len(r)
		}
		rows = append(rows, r)
	}
	for len(header) < width {
		header = append(header, "")
	}
	return header, rows, nil
}

func blankRow(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
