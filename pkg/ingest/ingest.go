// Package ingest reads incoming-batch files (CSV or XLSX, first row as
// column headers) into store.Row slices, for the scdload and scdserve
// commands.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/scdkit/scd/pkg/store"
)

// LoadRows reads path as a slice of store.Row. sheet selects an XLSX sheet
// by name and is ignored for CSV files; an empty sheet picks the first one.
// Cell values are strings, and a header with no cell in a shorter record maps
// to nil — store.Equal already treats "7" and 7 as equal, so callers do not
// need to pre-parse numeric columns.
func LoadRows(path, sheet string) ([]store.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".xlsx":
		return loadXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}
}

func loadCSV(path string) ([]store.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func loadXLSX(path, sheet string) ([]store.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets in %s", path)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func toRows(records [][]string) []store.Row {
	if len(records) == 0 {
		return nil
	}
	headers := records[0]
	rows := make([]store.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(store.Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}
