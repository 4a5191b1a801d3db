package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dataset is one ingested file: ordered rows of untyped cells plus header metadata.
// A file may carry banner or title rows above the real header, so HeaderRow and
// DataStartRow are explicit rather than assumed. Name scopes the file's output within
// a run and must be unique there; see UniqueNames.
type Dataset struct {
	Name         string   `json:"name"`
	Rows         [][]any  `json:"-"`
	Headers      []string `json:"headers"`
	HeaderRow    int      `json:"header_row"`
	DataStartRow int      `json:"data_start_row"`
	HasMetadata  bool     `json:"has_metadata"`
}

// NewDataset builds a dataset using row 0 as the header row and row 1 as the first
// data row. Readers that detect banner rows should use NewDatasetWithHeader instead.
func NewDataset(name string, rows [][]any) *Dataset {
	ds := &Dataset{
		Name:         name,
		Rows:         rows,
		HeaderRow:    0,
		DataStartRow: 1,
	}
	if len(rows) > 0 {
		ds.Headers = headerStrings(rows[0])
	}
	return ds
}

// NewDatasetWithHeader builds a dataset with header-detection metadata.
func NewDatasetWithHeader(name string, rows [][]any, headerRow, dataStartRow int) *Dataset {
	ds := &Dataset{
		Name:         name,
		Rows:         rows,
		HeaderRow:    headerRow,
		DataStartRow: dataStartRow,
		HasMetadata:  true,
	}
	if headerRow >= 0 && headerRow < len(rows) {
		ds.Headers = headerStrings(rows[headerRow])
	}
	return ds
}

// UniqueNames renames datasets whose Name repeats an earlier one in files to
// "<name>#<n>", n counting that name's occurrences from 2. Names are changed in place.
func UniqueNames(files []*Dataset) {
	taken := make(map[string]bool, len(files))
	for _, ds := range files {
		if ds != nil {
			taken[ds.Name] = false
		}
	}
	for _, ds := range files {
		if ds == nil {
			continue
		}
		if !taken[ds.Name] {
			taken[ds.Name] = true
			continue
		}
		base := ds.Name
		name := base
		for n := 2; ; n++ {
			name = fmt.Sprintf("%s#%d", base, n)
			if _, used := taken[name]; !used {
				break
			}
		}
		taken[name] = true
		ds.Name = name
	}
}

// DataRowCount returns the number of rows at or after DataStartRow.
func (d *Dataset) DataRowCount() int {
	if d == nil || d.DataStartRow >= len(d.Rows) {
		return 0
	}
	return len(d.Rows) - d.DataStartRow
}

// Cell returns the string form of the cell at row, col. Missing cells are "".
func (d *Dataset) Cell(row, col int) string {
	if row < 0 || row >= len(d.Rows) {
		return ""
	}
	r := d.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return CellString(r[col])
}

// CellString renders an untyped cell value as trimmed text.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func headerStrings(row []any) []string {
	headers := make([]string, len(row))
	for i, v := range row {
		headers[i] = CellString(v)
	}
	return headers
}
