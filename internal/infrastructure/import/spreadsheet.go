package csvimport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadSpreadsheet reads the first sheet of an XLSX workbook. The first
// non-empty row is the header.
func ReadSpreadsheet(r io.Reader) ([]string, []*Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	start := 0
	for start < len(records) && isBlankRecord(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, nil, ErrEmptyFile
	}

	headers := NormalizeHeaders(records[start])
	headerMap := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := headerMap[h]; !dup {
			headerMap[h] = i
		}
	}

	var rows []*Row
	for i := start + 1; i < len(records); i++ {
		row := newRow(i+1, headerMap, records[i])
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if CleanCell(v) != "" {
			return false
		}
	}
	return true
}
