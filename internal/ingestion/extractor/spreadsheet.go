package extractor

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// readXLSX returns every sheet's rows in workbook order.
func readXLSX(data []byte) ([][][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var sheets [][][]string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		sheets = append(sheets, rows)
	}
	return sheets, nil
}

// readXLS returns every sheet's rows from a legacy BIFF workbook.
func readXLS(data []byte) (sheets [][][]string, err error) {
	// The BIFF reader panics on some malformed records.
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, fmt.Errorf("read xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	for i := 0; i < wb.NumSheets(); i++ {
		sh := wb.GetSheet(i)
		if sh == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(sh.MaxRow); r++ {
			row := sh.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, rows)
	}
	return sheets, nil
}
