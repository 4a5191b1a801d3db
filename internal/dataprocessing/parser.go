package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"nexusprep/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for file types no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format is a supported input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseOptions tune file parsing.
type ParseOptions struct {
	// HeaderScanRows bounds header detection; zero means DefaultHeaderScanRows.
	HeaderScanRows int
	// Sheet selects a workbook sheet; empty means the active sheet.
	Sheet string
}

// DetectFormat maps a file name to its format by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ParseFile reads a CSV or Excel export from disk.
func ParseFile(path string, opts ParseOptions) (*domain.Dataset, error) {
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ParseReader(filepath.Base(path), f, opts)
}

// ParseReader reads an export from r; name supplies the format and the dataset name.
func ParseReader(name string, r io.Reader, opts ParseOptions) (*domain.Dataset, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r, opts.Sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return BuildDataset(name, rows, opts.HeaderScanRows), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(first)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent candidate separator on the first line.
func sniffDelimiter(sample []byte) rune {
	line := string(sample)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t', '|'} {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet != "" {
		return f.GetRows(sheet)
	}

	// Active sheet first, then the first sheet that has any data.
	candidates := append([]string{f.GetSheetName(f.GetActiveSheetIndex())}, f.GetSheetList()...)
	for _, name := range candidates {
		if name == "" {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, err
		}
		if len(trimTrailingEmpty(rows)) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}
