package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusprep/internal/shared/testutil"
	"nexusprep/pkg/contracts/domain"
)

func code(s string) *string { return &s }

func salesMappings(file string) []domain.ColumnMapping {
	return []domain.ColumnMapping{
		{File: file, ColumnIndex: 0, SourceColumn: "Invoice Date", SuggestedField: domain.FieldDate, Confidence: 100},
		{File: file, ColumnIndex: 1, SourceColumn: "Customer Name", SuggestedField: domain.FieldCustomer, Confidence: 100},
		{File: file, ColumnIndex: 2, SourceColumn: "Ship-to State", SuggestedField: domain.FieldState, Confidence: 100},
		{File: file, ColumnIndex: 3, SourceColumn: "Amount", SuggestedField: domain.FieldRevenue, Confidence: 100},
	}
}

func salesNormalizations(file string) []domain.Normalization {
	return []domain.Normalization{
		{File: file, Original: "CA", Normalized: code("CA"), Confidence: 100, Count: 1},
		{File: file, Original: "Texas", Normalized: code("TX"), Confidence: 100, Count: 1},
		{File: file, Original: "ny", Normalized: code("NY"), Confidence: 100, Count: 1},
		{File: file, Original: "California", Normalized: code("CA"), Confidence: 100, Count: 1},
	}
}

func TestBuildTable(t *testing.T) {
	ds := testutil.SalesExport("sales.csv")
	table := BuildTable(ds, salesMappings(ds.Name), salesNormalizations(ds.Name))

	assert.Equal(t, []string{"source_file", "source_row", "state", "revenue", "date", "customer"}, table.Headers)
	require.Len(t, table.Records, 4)
	assert.Equal(t, "sales.csv", table.Records[0][0])
	assert.Equal(t, "2", table.Records[0][1])
	assert.Equal(t, "CA", table.Records[0][2])
	assert.Equal(t, "1200.00", table.Records[0][3])
	assert.Equal(t, "TX", table.Records[1][2])
	assert.Equal(t, "850.50", table.Records[1][3])
	assert.Equal(t, "NY", table.Records[2][2])
	assert.Equal(t, "5", table.Records[3][1])
}

func TestBuildTableUnresolvedAndBlankRows(t *testing.T) {
	ds := testutil.Dataset("mixed.csv",
		[]string{"State", "Amount"},
		[]string{"Texas", "abc"},
		[]string{"", ""},
		[]string{"Atlantis", "10"},
	)
	mappings := []domain.ColumnMapping{
		{ColumnIndex: 0, SuggestedField: domain.FieldState, Confidence: 100},
		{ColumnIndex: 1, SuggestedField: domain.FieldRevenue, Confidence: 100},
	}
	nzs := []domain.Normalization{
		{Original: "Texas", Normalized: code("TX")},
		{Original: "Atlantis"},
	}

	table := BuildTable(ds, mappings, nzs)

	require.Len(t, table.Records, 2)
	assert.Equal(t, []string{"mixed.csv", "2", "TX", "abc"}, table.Records[0])
	assert.Equal(t, []string{"mixed.csv", "4", "", "10.00"}, table.Records[1])
}

func TestBuildTableIgnoresUnmappedColumns(t *testing.T) {
	ds := testutil.Dataset("notes.csv", []string{"Notes"}, []string{"hello"})
	mappings := []domain.ColumnMapping{
		{ColumnIndex: 0, SuggestedField: domain.FieldIgnore, Confidence: 20},
	}

	table := BuildTable(ds, mappings, nil)

	assert.Equal(t, []string{"source_file", "source_row"}, table.Headers)
	assert.Empty(t, table.Records)
}

func TestWriteNormalizedCSV(t *testing.T) {
	ds := testutil.SalesExport("sales.csv")
	var buf bytes.Buffer

	n, err := WriteNormalizedCSV(&buf, ds, salesMappings(ds.Name), salesNormalizations(ds.Name))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "state", records[0][2])
	assert.Equal(t, "CA", records[4][2])
	assert.Equal(t, "99.50", records[4][3])
}

func TestNormalizedExporterExportResult(t *testing.T) {
	dir := t.TempDir()
	done := testutil.SalesExport("q1/sales.csv")
	skipped := testutil.Dataset("empty.csv", []string{})

	result := &domain.ValidationResult{
		Mappings:       salesMappings(done.Name),
		Normalizations: salesNormalizations(done.Name),
		Files: []domain.FileSummary{
			{File: done.Name, Completed: true},
			{File: skipped.Name},
		},
	}

	logger, logs := testutil.NewTestLogger(t)
	exp := NewNormalizedExporter(dir, logger)
	paths, err := exp.ExportResult([]*domain.Dataset{done, skipped}, result)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "sales.normalized.csv")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, "q1/sales.csv", records[1][0])

	rec, ok := logs.Find("normalized_export_written")
	require.True(t, ok)
	assert.Equal(t, "exporter", rec.Attrs["component"])
}

func TestNormalizedExporterRepeatedNames(t *testing.T) {
	dir := t.TempDir()
	first := testutil.SalesExport("sales.csv")
	second := testutil.SalesExport("sales.csv")
	domain.UniqueNames([]*domain.Dataset{first, second})

	result := &domain.ValidationResult{
		Mappings:       append(salesMappings(first.Name), salesMappings(second.Name)...),
		Normalizations: append(salesNormalizations(first.Name), salesNormalizations(second.Name)...),
		Files: []domain.FileSummary{
			{File: first.Name, Completed: true},
			{File: second.Name, Completed: true},
		},
	}

	paths, err := NewNormalizedExporter(dir, nil).ExportResult([]*domain.Dataset{first, second}, result)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "sales.normalized.csv"),
		filepath.Join(dir, "sales-2.normalized.csv"),
	}, paths)
}

func TestNormalizedExporterNilResult(t *testing.T) {
	exp := NewNormalizedExporter(t.TempDir(), nil)
	paths, err := exp.ExportResult(nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, paths)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"sales.csv", "sales.normalized.csv"},
		{"/tmp/in/Q1 Export.xlsx", "Q1 Export.normalized.csv"},
		{"noext", "noext.normalized.csv"},
		{"", "dataset.normalized.csv"},
		{"sales.csv#2", "sales-2.normalized.csv"},
		{"report#final.csv", "report#final.normalized.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputName(tt.source))
		})
	}
}
