package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"nexusprep/internal/mapping"
	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

const (
	columnSourceFile = "source_file"
	columnSourceRow  = "source_row"

	// NormalizedSuffix is appended to the source file's base name.
	NormalizedSuffix = ".normalized.csv"
)

// amountFields are reformatted to two decimals when they parse.
var amountFields = map[domain.FieldID]bool{
	domain.FieldRevenue: true,
	domain.FieldWages:   true,
}

// Table is a dataset projected onto canonical field columns.
type Table struct {
	Headers []string
	Records [][]string
}

// BuildTable projects ds onto the fields detected in mappings, in taxonomy order.
// State values are replaced with their canonical code; unresolved values are left blank.
func BuildTable(ds *domain.Dataset, mappings []domain.ColumnMapping, normalizations []domain.Normalization) Table {
	type column struct {
		field domain.FieldID
		index int
	}
	var columns []column
	for _, f := range taxonomy.Fields {
		if m, ok := mapping.ColumnFor(mappings, f.ID); ok {
			columns = append(columns, column{field: f.ID, index: m.ColumnIndex})
		}
	}

	codes := make(map[string]string, len(normalizations))
	for _, nz := range normalizations {
		if nz.Resolved() {
			codes[nz.Original] = nz.Code()
		}
	}

	t := Table{Headers: []string{columnSourceFile, columnSourceRow}}
	for _, c := range columns {
		t.Headers = append(t.Headers, string(c.field))
	}
	if ds == nil {
		return t
	}

	for r := ds.DataStartRow; r < len(ds.Rows); r++ {
		record := make([]string, 0, len(t.Headers))
		record = append(record, ds.Name, formatInt(r+1))
		blank := true
		for _, c := range columns {
			v := ds.Cell(r, c.index)
			if v != "" {
				blank = false
			}
			record = append(record, normalizeValue(c.field, v, codes))
		}
		if blank {
			continue
		}
		t.Records = append(t.Records, record)
	}
	return t
}

func normalizeValue(field domain.FieldID, v string, codes map[string]string) string {
	switch {
	case v == "":
		return ""
	case field == domain.FieldState:
		return codes[v]
	case amountFields[field]:
		if f, ok := taxonomy.ParseAmount(v); ok {
			return formatFloat(f)
		}
	}
	return v
}

// WriteNormalizedCSV writes the normalized projection of ds to w and returns the
// number of data records written.
func WriteNormalizedCSV(w io.Writer, ds *domain.Dataset, mappings []domain.ColumnMapping, normalizations []domain.Normalization) (int, error) {
	t := BuildTable(ds, mappings, normalizations)
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return 0, fmt.Errorf("failed to write headers: %w", err)
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return 0, fmt.Errorf("failed to write records: %w", err)
	}
	return len(t.Records), nil
}

// NormalizedExporter writes one normalized CSV per completed file of a run.
type NormalizedExporter struct {
	writer *CSVWriter
	logger *slog.Logger
}

// NewNormalizedExporter creates an exporter writing under dir
func NewNormalizedExporter(dir string, logger *slog.Logger) *NormalizedExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &NormalizedExporter{
		writer: NewCSVWriter(dir),
		logger: logger.With("component", "exporter"),
	}
}

// ExportResult writes every dataset that completed the pipeline in result and
// returns the written paths in input order. Skipped and unreached files are ignored.
func (e *NormalizedExporter) ExportResult(datasets []*domain.Dataset, result *domain.ValidationResult) ([]string, error) {
	if result == nil {
		return nil, nil
	}
	completed := make(map[string]bool, len(result.Files))
	for _, fs := range result.Files {
		completed[fs.File] = fs.Completed
	}

	var paths []string
	for _, ds := range datasets {
		if ds == nil || !completed[ds.Name] {
			continue
		}
		path, rows, err := e.export(ds, result)
		if err != nil {
			return paths, fmt.Errorf("failed to export %s: %w", ds.Name, err)
		}
		e.logger.Info("normalized_export_written",
			slog.String("file", ds.Name),
			slog.String("path", path),
			slog.Int("rows", rows))
		paths = append(paths, path)
	}
	return paths, nil
}

func (e *NormalizedExporter) export(ds *domain.Dataset, result *domain.ValidationResult) (string, int, error) {
	t := BuildTable(ds, result.MappingsForFile(ds.Name), result.NormalizationsForFile(ds.Name))

	stream, err := e.writer.CreateStreamWriter(OutputName(ds.Name), t.Headers)
	if err != nil {
		return "", 0, err
	}
	for _, record := range t.Records {
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return "", 0, err
		}
	}
	return stream.Path(), len(t.Records), stream.Close()
}

// OutputName derives the export file name from a source file name. A "#n" suffix
// added to repeated names becomes "-n" so each file gets its own export.
func OutputName(source string) string {
	source, copyNo := splitCopy(source)
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "dataset"
	}
	if copyNo != "" {
		base += "-" + copyNo
	}
	return base + NormalizedSuffix
}

func splitCopy(name string) (string, string) {
	i := strings.LastIndexByte(name, '#')
	if i < 0 || i == len(name)-1 {
		return name, ""
	}
	if _, err := strconv.Atoi(name[i+1:]); err != nil {
		return name, ""
	}
	return name[:i], name[i+1:]
}
