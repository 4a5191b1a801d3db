package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusprep/internal/jurisdiction"
	"nexusprep/pkg/contracts/domain"
)

func stateColumn(values ...any) *domain.Dataset {
	rows := [][]any{{"State"}}
	for _, v := range values {
		rows = append(rows, []any{v})
	}
	return domain.NewDataset("states.csv", rows)
}

func TestResolveTiers(t *testing.T) {
	n := NewNormalizer(Options{})
	tests := []struct {
		raw        string
		code       string
		confidence int
		method     string
	}{
		{"CA", "CA", 100, MethodCode},
		{"ca", "CA", 100, MethodCode},
		{" tx ", "TX", 100, MethodCode},
		{"California", "CA", 100, MethodName},
		{"NEW YORK", "NY", 100, MethodName},
		{"district of columbia", "DC", 100, MethodName},
		{"Calif", "CA", 95, MethodVariation},
		{"N.Y.", "NY", 95, MethodVariation},
		{"Austin, TX", "TX", 90, MethodSuffix},
		{"Portland, or", "OR", 90, MethodSuffix},
		{"Pennsylvnia", "PA", 78, MethodFuzzy},
		{"Zanzibar", "", 0, MethodUnresolved},
		{"", "", 0, MethodUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := n.Resolve(tt.raw)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.method, got.Method)
		})
	}
}

func TestResolveEveryCodeAndName(t *testing.T) {
	n := NewNormalizer(Options{})
	for _, j := range jurisdiction.All {
		for _, raw := range []string{j.Code, j.Name} {
			got := n.Resolve(raw)
			assert.Equal(t, j.Code, got.Code, raw)
			assert.Equal(t, 100, got.Confidence, raw)
		}
	}
}

func TestResolveEveryVariation(t *testing.T) {
	n := NewNormalizer(Options{})
	for raw, code := range jurisdiction.Variations() {
		got := n.Resolve(raw)
		assert.Equal(t, code, got.Code, raw)
		assert.GreaterOrEqual(t, got.Confidence, 90, raw)
	}
}

func TestResolveIdempotent(t *testing.T) {
	n := NewNormalizer(Options{})
	for _, code := range jurisdiction.Codes() {
		first := n.Resolve(code)
		second := n.Resolve(first.Code)
		assert.Equal(t, first, second)
		assert.Equal(t, 100, second.Confidence)
	}
}

func TestNormalizeDeduplicatesByValue(t *testing.T) {
	n := NewNormalizer(Options{})
	ds := stateColumn("CA", "Calif", "CA", "", "TX", "CA")

	report := n.Normalize(ds, 0)

	require.Len(t, report.Normalizations, 3)
	assert.Equal(t, "CA", report.Normalizations[0].Original)
	assert.Equal(t, 3, report.Normalizations[0].Count)
	assert.Equal(t, "Calif", report.Normalizations[1].Original)
	assert.Equal(t, "CA", report.Normalizations[1].Code())
	assert.Equal(t, 95, report.Normalizations[1].Confidence)
	assert.False(t, report.Normalizations[1].Flagged)
	assert.Equal(t, 5, report.NonEmpty)
	assert.Equal(t, 1.0, report.SuccessRate())
	assert.Empty(t, report.Issues)
	assert.Equal(t, map[string]string{"CA": "CA", "Calif": "CA", "TX": "TX"}, report.Lookup())
}

func TestNormalizeFlagsLowConfidence(t *testing.T) {
	n := NewNormalizer(Options{})
	report := n.Normalize(stateColumn("Pennsylvnia"), 0)

	require.Len(t, report.Normalizations, 1)
	assert.True(t, report.Normalizations[0].Flagged)
	assert.True(t, report.Normalizations[0].Resolved())
}

func TestNormalizeIssueSeverity(t *testing.T) {
	tests := []struct {
		name     string
		values   []any
		wantSev  domain.Severity
		wantRows []int
	}{
		{"warning", []any{"CA", "TX", "NY", "Zanzibar", "Atlantis", "OH", "FL"}, domain.SeverityWarning, []int{5, 6}},
		{"error", []any{"CA", "Zanzibar", "Atlantis", "Narnia"}, domain.SeverityError, []int{3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewNormalizer(Options{}).Normalize(stateColumn(tt.values...), 0)
			require.Len(t, report.Issues, 1)
			is := report.Issues[0]
			assert.Equal(t, domain.IssueStateNormalization, is.Type)
			assert.Equal(t, tt.wantSev, is.Severity)
			assert.Equal(t, tt.wantRows, is.AffectedRows)
			assert.Equal(t, len(tt.wantRows), is.AffectedCount)
			require.Len(t, is.Suggestions, 2)
			assert.Equal(t, "Proceed with partial normalization", is.Suggestions[0].Label)
		})
	}
}

func TestNormalizeNoIssueAboveTarget(t *testing.T) {
	values := []any{"CA", "TX", "NY", "OH", "FL", "WA", "OR", "NV", "AZ", "Zanzibar"}
	report := NewNormalizer(Options{}).Normalize(stateColumn(values...), 0)

	assert.Equal(t, 1, report.Failed)
	assert.InDelta(t, 0.9, report.SuccessRate(), 1e-9)
	assert.Empty(t, report.Issues)
}

func TestNormalizeSuccessRateIgnoresEmpty(t *testing.T) {
	report := NewNormalizer(Options{}).Normalize(stateColumn("CA", "", "", nil, "TX"), 0)

	assert.Equal(t, 2, report.NonEmpty)
	assert.Equal(t, 1.0, report.SuccessRate())
}

func TestNormalizeCapsAffectedRows(t *testing.T) {
	values := make([]any, 0, 10)
	for i := 0; i < 10; i++ {
		values = append(values, "Atlantis")
	}
	report := NewNormalizer(Options{MaxAffectedRows: 3}).Normalize(stateColumn(values...), 0)

	require.Len(t, report.Issues, 1)
	assert.Len(t, report.Issues[0].AffectedRows, 3)
	assert.Equal(t, 10, report.Issues[0].AffectedCount)
}
