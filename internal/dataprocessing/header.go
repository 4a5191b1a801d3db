package dataprocessing

import (
	"strings"

	"nexusprep/internal/mapping"
	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

// DefaultHeaderScanRows is how many leading rows are considered as header candidates.
const DefaultHeaderScanRows = 15

const (
	keywordWeight = 10
	textWeight    = 2
)

var headerKeywords = func() []string {
	var out []string
	for _, f := range taxonomy.Fields {
		for _, p := range f.Patterns {
			out = append(out, mapping.NormalizeHeader(p))
		}
	}
	return out
}()

// HeaderPosition locates the header and the first data row.
type HeaderPosition struct {
	HeaderRow    int
	DataStartRow int
}

// DetectHeader picks the header among the first scanRows rows. Rows are scored by
// taxonomy keyword hits and by how many non-numeric text cells they carry; banner rows
// with a single cell are passed over when the sheet is wider. Ties go to the earlier row.
func DetectHeader(rows [][]string, scanRows int) HeaderPosition {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}
	limit := min(scanRows, len(rows))

	width := 0
	for i := 0; i < limit; i++ {
		width = max(width, nonEmptyCells(rows[i]))
	}
	minCells := min(2, width)

	best, bestScore := -1, 0
	for i := 0; i < limit; i++ {
		nonEmpty, text, hits := 0, 0, 0
		for _, cell := range rows[i] {
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			nonEmpty++
			if !taxonomy.IsAmount(v) && !taxonomy.IsDate(v) {
				text++
			}
			if isKeyword(v) {
				hits++
			}
		}
		if nonEmpty < minCells || nonEmpty == 0 {
			continue
		}
		score := hits*keywordWeight + text*textWeight + nonEmpty
		if text < nonEmpty {
			// Header rows are labels; numbers and dates mark data rows.
			score -= (nonEmpty - text) * keywordWeight
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		best = 0
	}

	start := best + 1
	for start < len(rows) && nonEmptyCells(rows[start]) == 0 {
		start++
	}
	return HeaderPosition{HeaderRow: best, DataStartRow: start}
}

func isKeyword(cell string) bool {
	normalized := mapping.NormalizeHeader(cell)
	if normalized == "" {
		return false
	}
	padded := " " + normalized + " "
	for _, k := range headerKeywords {
		if normalized == k || (len(k) > 2 && strings.Contains(padded, " "+k+" ")) {
			return true
		}
	}
	return false
}

func nonEmptyCells(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// trimTrailingEmpty drops blank rows at the end of a sheet.
func trimTrailingEmpty(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && nonEmptyCells(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}

// BuildDataset detects the header in rows and wraps them as a dataset named name.
func BuildDataset(name string, rows [][]string, scanRows int) *domain.Dataset {
	rows = trimTrailingEmpty(rows)
	cells := make([][]any, len(rows))
	for i, row := range rows {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = v
		}
	}
	if len(rows) == 0 {
		return domain.NewDataset(name, cells)
	}

	pos := DetectHeader(rows, scanRows)
	if pos.HeaderRow == 0 && pos.DataStartRow == 1 {
		return domain.NewDataset(name, cells)
	}
	return domain.NewDatasetWithHeader(name, cells, pos.HeaderRow, pos.DataStartRow)
}
