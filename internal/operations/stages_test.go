package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusprep/internal/shared/testutil"
	"nexusprep/pkg/contracts/domain"
)

func newState(ds *domain.Dataset) (*FileState, *domain.ValidationResult) {
	result := &domain.ValidationResult{}
	return NewFileState(ds, "acme", nil, result), result
}

func TestParsingStage(t *testing.T) {
	tests := []struct {
		name     string
		ds       *domain.Dataset
		status   domain.StageStatus
		skipped  bool
		issues   int
		messageP string
	}{
		{"empty file", domain.NewDataset("a.csv", nil), domain.StageError, true, 1, "File is empty"},
		{"blank header", domain.NewDataset("a.csv", [][]any{{"", nil}, {"x", "y"}}), domain.StageError, true, 1, "No header row found"},
		{"header only", testutil.Dataset("a.csv", []string{"State", "Amount"}), domain.StageWarning, false, 0, "no data rows"},
		{"ok", testutil.SalesExport("a.csv"), domain.StageSuccess, false, 0, "Parsed 4 rows and 4 columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, result := newState(tt.ds)

			res, err := NewParsingStage().Execute(context.Background(), state)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Contains(t, res.Message, tt.messageP)
			assert.Equal(t, tt.skipped, state.Skipped)
			assert.Len(t, result.Issues, tt.issues)
			for _, is := range result.Issues {
				assert.Equal(t, "a.csv", is.File)
				assert.Equal(t, domain.IssueDataQuality, is.Type)
			}
		})
	}
}

func TestParsingStageNilDatasetIsFault(t *testing.T) {
	state, _ := newState(nil)
	_, err := NewParsingStage().Execute(context.Background(), state)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
}

func TestParsingStageReportsHeaderPosition(t *testing.T) {
	rows := testutil.Rows([]string{"Quarterly export"},
		[]string{"State", "Amount"},
		[]string{"CA", "10"},
	)
	state, _ := newState(domain.NewDatasetWithHeader("a.csv", rows, 1, 2))

	res, err := NewParsingStage().Execute(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Details["header_row"])
	assert.Equal(t, 3, res.Details["data_start_row"])
	assert.Equal(t, true, res.Details["has_metadata"])
	assert.Equal(t, 1, res.Details["rows"])
}

func TestStateNormalizationWithoutStateColumn(t *testing.T) {
	ds := testutil.Dataset("a.csv", []string{"Amount"}, []string{"10"})
	state, result := newState(ds)
	_, err := NewHeaderAnalysisStage(nil).Execute(context.Background(), state)
	require.NoError(t, err)

	res, err := NewStateNormalizationStage(nil).Execute(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, domain.StageWarning, res.Status)
	assert.Equal(t, "No state column detected", res.Message)
	assert.Nil(t, state.Normalization)
	assert.Empty(t, result.Normalizations)
}

func TestStateNormalizationFlagsFuzzyValues(t *testing.T) {
	ds := testutil.Dataset("a.csv", []string{"State"},
		[]string{"CA"}, []string{"TX"}, []string{"NY"}, []string{"OR"}, []string{"Pennsylvnia"},
	)
	state, result := newState(ds)
	_, err := NewHeaderAnalysisStage(nil).Execute(context.Background(), state)
	require.NoError(t, err)

	res, err := NewStateNormalizationStage(nil).Execute(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, domain.StageWarning, res.Status)
	assert.Equal(t, 1, res.Details["flagged"])
	assert.Len(t, result.Normalizations, 5)
	assert.Equal(t, []string{"CA", "TX", "NY", "OR", "PA"}, state.StateCodes())
}

func TestFinalizationStage(t *testing.T) {
	ds := testutil.Dataset("a.csv", []string{"State", "Revenue"},
		[]string{"CA", "1,000.10"},
		[]string{"California", "n/a"},
		[]string{"NV", "(200)"},
	)
	state, _ := newState(ds)
	ctx := context.Background()
	for _, step := range []Step{NewHeaderAnalysisStage(nil), NewStateNormalizationStage(nil)} {
		_, err := step.Execute(ctx, state)
		require.NoError(t, err)
	}

	res, err := NewFinalizationStage().Execute(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, domain.StageSuccess, res.Status)
	assert.Equal(t, 2, state.StatesDetected)
	assert.InDelta(t, 800.10, state.TotalRevenue, 0.001)
	assert.True(t, state.Completed)
}

func TestFirmLearningStageWithoutStoreCounts(t *testing.T) {
	state, _ := newState(testutil.SalesExport("a.csv"))
	ctx := context.Background()
	_, err := NewHeaderAnalysisStage(nil).Execute(ctx, state)
	require.NoError(t, err)

	res, err := NewFirmLearningStage(nil).Execute(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, domain.StageSuccess, res.Status)
	assert.Equal(t, 4, state.LearnedCount)
	assert.Equal(t, "4 mappings added to firm taxonomy", res.Message)
}

func TestRequiredFieldsStageBlocksWithoutRevenue(t *testing.T) {
	ds := testutil.Dataset("a.csv", []string{"Customer"}, []string{"Acme"})
	state, result := newState(ds)
	ctx := context.Background()
	_, err := NewHeaderAnalysisStage(nil).Execute(ctx, state)
	require.NoError(t, err)

	res, err := NewRequiredFieldsStage(nil).Execute(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, domain.StageError, res.Status)
	assert.Equal(t, "0 of 4 analysis modules can proceed", res.Message)
	assert.Len(t, result.IssuesOfType(domain.IssueMissingField), 4)
}
