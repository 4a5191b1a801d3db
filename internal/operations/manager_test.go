package operations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusprep/internal/learning"
	"nexusprep/internal/shared/testutil"
	"nexusprep/pkg/contracts/domain"
)

type recordedEvent struct {
	eventType string
	step      string
	status    string
	metadata  interface{}
}

type fakeReporter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeReporter) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{eventType, step, status, metadata})
}

func (f *fakeReporter) ofType(eventType string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func stagesFor(result *domain.ValidationResult, file string) []domain.StageResult {
	var out []domain.StageResult
	for _, s := range result.Stages {
		if s.File == file {
			out = append(out, s)
		}
	}
	return out
}

func TestValidateSalesExport(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	m := NewManager(NewConfig(), nil, logger)

	result := m.Validate(context.Background(), []*domain.Dataset{testutil.SalesExport("sales.csv")})

	require.NotNil(t, result)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "default", result.FirmID)
	require.Len(t, result.Stages, 7)
	assert.Equal(t, domain.StageParsing, result.Stages[0].ID)
	assert.Equal(t, domain.StageFinalization, result.Stages[6].ID)
	assert.Equal(t, 100.0, result.Stages[6].Progress)

	for _, s := range result.Stages {
		assert.Equal(t, "sales.csv", s.File)
		assert.NotEqual(t, domain.StageError, s.Status, "stage %s", s.ID)
	}
	assert.Equal(t, domain.StageWarning, result.Stages[4].Status, "payroll is blocked")

	require.Len(t, result.Mappings, 4)
	assert.Equal(t, domain.FieldState, result.Mappings[2].SuggestedField)
	assert.Equal(t, domain.FieldRevenue, result.Mappings[3].SuggestedField)
	assert.Len(t, result.Normalizations, 4)
	assert.Empty(t, result.IssuesOfType(domain.IssueError))

	s := result.Summary
	assert.Equal(t, 1, s.TotalFiles)
	assert.Equal(t, 4, s.TotalRows)
	assert.Equal(t, 4, s.MappedColumns)
	assert.Equal(t, []string{"CA", "NY", "TX"}, s.States)
	assert.Equal(t, 3, s.StatesDetected)
	assert.InDelta(t, 2580.0, s.TotalRevenue, 0.001)
	assert.Equal(t, 100, s.QualityScore)
	assert.Equal(t, 4, s.AddedToFirmTaxonomy)
	assert.Equal(t, 1, s.Errors)
	assert.True(t, s.ReadyForAnalysis)
	assert.False(t, s.Aborted)

	require.Len(t, result.Files, 1)
	assert.True(t, result.Files[0].Completed)
	assert.Equal(t, 1.0, result.Files[0].NormalizationRate)

	testutil.AssertNoErrors(t, logs)
	rec, ok := logs.Find("validation_complete")
	require.True(t, ok)
	assert.Equal(t, RunStatusCompleted, rec.Attrs["status"])
	assert.Equal(t, "pipeline", rec.Attrs["component"])
}

func TestValidateSkipsRejectedFile(t *testing.T) {
	m := NewManager(NewConfig(), nil, nil)
	empty := domain.NewDataset("empty.csv", nil)

	result := m.Validate(context.Background(), []*domain.Dataset{empty, testutil.SalesExport("sales.csv")})

	emptyStages := stagesFor(result, "empty.csv")
	require.Len(t, emptyStages, 1)
	assert.Equal(t, domain.StageError, emptyStages[0].Status)
	assert.Equal(t, "File is empty", emptyStages[0].Message)
	assert.Len(t, stagesFor(result, "sales.csv"), 7)

	assert.Empty(t, result.IssuesOfType(domain.IssueError), "a rejected file is not a fault")
	require.Len(t, result.Files, 2)
	assert.False(t, result.Files[0].Completed)
	assert.True(t, result.Files[1].Completed)
	assert.Equal(t, 100.0, result.Stages[len(result.Stages)-1].Progress)
	assert.False(t, result.Summary.Aborted)
	assert.True(t, result.Summary.ReadyForAnalysis)
}

func TestValidatePanicYieldsOneErrorIssue(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(NewParsingStage()))
	require.NoError(t, registry.Register(NewHeaderAnalysisStage(nil)))
	boom := newStubStep("explode", StageIDHeaderAnalysis)
	boom.run = func(context.Context, *FileState) (domain.StageResult, error) {
		panic("index out of range")
	}
	require.NoError(t, registry.Register(boom))
	m := NewManagerWithRegistry(registry, NewConfig(), nil)

	var result *domain.ValidationResult
	require.NotPanics(t, func() {
		result = m.Validate(context.Background(), []*domain.Dataset{
			testutil.SalesExport("a.csv"),
			testutil.SalesExport("b.csv"),
		})
	})

	faults := result.IssuesOfType(domain.IssueError)
	require.Len(t, faults, 1)
	assert.Equal(t, domain.SeverityError, faults[0].Severity)
	assert.Equal(t, "a.csv", faults[0].File)
	assert.Contains(t, faults[0].Description, "index out of range")

	// Partial results survive the fault.
	assert.Len(t, result.Mappings, 4)
	require.Len(t, result.Stages, 3)
	assert.Equal(t, domain.StageID("explode"), result.Stages[2].ID)
	assert.Equal(t, domain.StageError, result.Stages[2].Status)
	assert.Empty(t, stagesFor(result, "b.csv"))

	assert.True(t, result.Summary.Aborted)
	assert.False(t, result.Summary.ReadyForAnalysis)
	require.Len(t, result.Files, 2)
	assert.False(t, result.Files[0].Completed)
	assert.False(t, result.CompletedAt.IsZero())
}

func TestValidateStageErrorIsFault(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(NewParsingStage()))
	failing := newStubStep("store", StageIDParsing)
	failing.run = func(context.Context, *FileState) (domain.StageResult, error) {
		return domain.StageResult{}, errors.New("connection reset")
	}
	require.NoError(t, registry.Register(failing))
	require.NoError(t, registry.Register(newStubStep("after", "store")))
	m := NewManagerWithRegistry(registry, NewConfig(), nil)

	result := m.Validate(context.Background(), []*domain.Dataset{testutil.SalesExport("a.csv")})

	faults := result.IssuesOfType(domain.IssueError)
	require.Len(t, faults, 1)
	assert.Contains(t, faults[0].Description, "the store stage")
	assert.Contains(t, faults[0].Description, "connection reset")
	for _, s := range result.Stages {
		assert.NotEqual(t, domain.StageID("after"), s.ID)
	}
	assert.True(t, result.Summary.Aborted)
}

func TestValidateCancelledContext(t *testing.T) {
	m := NewManager(NewConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := m.Validate(ctx, []*domain.Dataset{testutil.SalesExport("a.csv")})

	faults := result.IssuesOfType(domain.IssueError)
	require.Len(t, faults, 1)
	assert.Contains(t, faults[0].Description, "cancelled")
	require.Len(t, result.Stages, 1)
	assert.Equal(t, domain.StageParsing, result.Stages[0].ID)
	assert.Equal(t, domain.StageError, result.Stages[0].Status)
	assert.True(t, result.Summary.Aborted)
}

func TestValidateAggregatesAcrossFiles(t *testing.T) {
	m := NewManager(NewConfig(), nil, nil)
	sales := testutil.Dataset("sales.csv",
		[]string{"State", "Revenue"},
		[]string{"CA", "100"},
		[]string{"Oregon", "250.25"},
	)
	payroll := testutil.Dataset("payroll.csv",
		[]string{"State", "Employee", "Wages"},
		[]string{"TX", "E-1", "5000"},
		[]string{"CA", "E-2", "4200"},
	)

	result := m.Validate(context.Background(), []*domain.Dataset{sales, payroll})

	require.Len(t, result.Files, 2)
	filePayroll := result.Files[0].Modules[2]
	assert.Equal(t, domain.ModulePayroll, filePayroll.Module)
	assert.False(t, filePayroll.CanProceed, "sales.csv alone has no wages")

	s := result.Summary
	assert.Equal(t, 2, s.TotalFiles)
	assert.Equal(t, 4, s.TotalRows)
	assert.Equal(t, []string{"CA", "OR", "TX"}, s.States)
	assert.InDelta(t, 350.25, s.TotalRevenue, 0.001)
	assert.ElementsMatch(t,
		[]domain.FieldID{domain.FieldState, domain.FieldRevenue, domain.FieldEmployee, domain.FieldWages},
		s.DetectedFields)
	for _, mod := range s.Modules {
		assert.True(t, mod.CanProceed, "module %s", mod.Module)
	}

	for _, mp := range result.MappingsForFile("payroll.csv") {
		assert.Equal(t, "payroll.csv", mp.File)
	}
	assert.Len(t, result.NormalizationsForFile("sales.csv"), 2)
}

func TestValidateSummaryNeedsFieldsInOneFile(t *testing.T) {
	m := NewManager(NewConfig(), nil, nil)
	payroll := testutil.Dataset("payroll.csv",
		[]string{"State", "Wages"},
		[]string{"TX", "5000"},
		[]string{"CA", "4200"},
	)
	sales := testutil.Dataset("sales.csv",
		[]string{"Customer", "Amount"},
		[]string{"Acme", "100"},
		[]string{"Globex", "250"},
	)

	result := m.Validate(context.Background(), []*domain.Dataset{payroll, sales})

	modules := map[domain.Module]domain.ModuleReadiness{}
	for _, mod := range result.Summary.Modules {
		modules[mod.Module] = mod
	}
	assert.True(t, modules[domain.ModulePayroll].CanProceed)
	for _, mod := range []domain.Module{domain.ModuleSales, domain.ModuleIncome, domain.ModuleFranchise} {
		assert.Equal(t, domain.ReadinessBlocked, modules[mod].Status, mod)
		assert.False(t, modules[mod].CanProceed, mod)
	}
	assert.Equal(t, []domain.FieldID{domain.FieldState}, modules[domain.ModuleSales].MissingRequired)
	assert.True(t, result.Summary.ReadyForAnalysis)
}

func TestValidateKeepsSameNamedFilesApart(t *testing.T) {
	m := NewManager(NewConfig(), nil, nil)
	east := testutil.Dataset("sales.csv",
		[]string{"State", "Amount"},
		[]string{"NY", "100"},
		[]string{"NJ", "200"},
	)
	west := testutil.Dataset("sales.csv",
		[]string{"Customer", "Amount", "State"},
		[]string{"Acme", "300", "CA"},
		[]string{"Globex", "400", "Oregon"},
		[]string{"Initech", "500", "WA"},
	)

	result := m.Validate(context.Background(), []*domain.Dataset{east, west})

	require.Len(t, result.Files, 2)
	assert.Equal(t, "sales.csv", result.Files[0].File)
	assert.Equal(t, "sales.csv#2", result.Files[1].File)
	assert.Equal(t, "sales.csv#2", west.Name)

	assert.Len(t, result.MappingsForFile("sales.csv"), 2)
	westMappings := result.MappingsForFile("sales.csv#2")
	require.Len(t, westMappings, 3)
	for _, mp := range westMappings {
		if mp.SuggestedField == domain.FieldState {
			assert.Equal(t, 2, mp.ColumnIndex)
		}
	}

	assert.Len(t, result.NormalizationsForFile("sales.csv"), 2)
	assert.Len(t, result.NormalizationsForFile("sales.csv#2"), 3)
	assert.Equal(t, 2, result.Files[0].StatesDetected)
	assert.Equal(t, 3, result.Files[1].StatesDetected)
	assert.Equal(t, []string{"CA", "NJ", "NY", "OR", "WA"}, result.Summary.States)
}

func TestValidateUsesAndUpdatesFirmTaxonomy(t *testing.T) {
	ctx := context.Background()
	store := learning.NewMemoryStore()
	require.NoError(t, store.Record(ctx, []learning.Entry{{
		FirmID:       "acme",
		Header:       "line ref",
		SourceColumn: "Line Ref",
		Field:        domain.FieldProduct,
		Confidence:   92,
	}}))
	sink := learning.NewSink(store, learning.DefaultThreshold, nil)
	m := NewManager(NewConfig(), sink, nil)

	ds := testutil.Dataset("orders.csv",
		[]string{"State", "Amount", "Line Ref"},
		[]string{"CA", "10", "A-100"},
		[]string{"NV", "20", "B-200"},
	)
	result := m.ValidateForFirm(ctx, "acme", []*domain.Dataset{ds})

	require.Len(t, result.Mappings, 3)
	ref := result.Mappings[2]
	assert.Equal(t, domain.FieldProduct, ref.SuggestedField)
	assert.Equal(t, domain.SourceLearned, ref.Source)
	assert.Equal(t, 92, ref.Confidence)
	assert.Equal(t, 3, result.Summary.AddedToFirmTaxonomy)

	entries, err := store.List(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	others, err := store.List(ctx, "default")
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestValidateReportsProgress(t *testing.T) {
	reporter := &fakeReporter{}
	m := NewManager(NewConfig(), nil, nil)
	m.SetProgressReporter(reporter)

	m.Validate(context.Background(), []*domain.Dataset{testutil.SalesExport("a.csv"), testutil.SalesExport("b.csv")})

	assert.Len(t, reporter.ofType(EventTypeValidationStarted), 1)
	progress := reporter.ofType(EventTypeStageProgress)
	require.Len(t, progress, 14)

	first := progress[0].metadata.(StageEvent)
	assert.Equal(t, StageIDParsing, first.Stage)
	assert.InDelta(t, 7.1, first.Progress, 0.01)
	last := progress[13].metadata.(StageEvent)
	assert.Equal(t, "b.csv", last.File)
	assert.Equal(t, 100.0, last.Progress)

	done := reporter.ofType(EventTypeValidationComplete)
	require.Len(t, done, 1)
	assert.Equal(t, RunStatusCompleted, done[0].status)
	assert.Empty(t, reporter.ofType(EventTypeValidationError))
}

func TestValidateNoFiles(t *testing.T) {
	result := NewManager(nil, nil, nil).Validate(context.Background(), nil)

	assert.Empty(t, result.Stages)
	assert.Empty(t, result.Files)
	assert.Equal(t, 0, result.Summary.TotalFiles)
	assert.False(t, result.Summary.ReadyForAnalysis)
	for _, mod := range result.Summary.Modules {
		assert.Equal(t, domain.ReadinessBlocked, mod.Status)
	}
}
