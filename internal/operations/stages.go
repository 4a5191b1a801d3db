package operations

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"nexusprep/internal/learning"
	"nexusprep/internal/mapping"
	"nexusprep/internal/normalization"
	"nexusprep/internal/quality"
	"nexusprep/internal/readiness"
	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

// DefaultStages returns the seven pipeline steps configured from cfg. sink may be nil,
// in which case firm learning only counts.
func DefaultStages(cfg *Config, sink *learning.Sink) []Step {
	if cfg == nil {
		cfg = NewConfig()
	}
	return []Step{
		NewParsingStage(),
		NewHeaderAnalysisStage(mapping.NewMapper(cfg.MapperOptions())),
		NewDataQualityStage(quality.NewScanner(cfg.MaxAffectedRows)),
		NewStateNormalizationStage(normalization.NewNormalizer(cfg.NormalizerOptions())),
		NewRequiredFieldsStage(taxonomy.Catalog),
		NewFirmLearningStage(sink),
		NewFinalizationStage(),
	}
}

// ParsingStage checks that the ingested dataset has a header and data.
type ParsingStage struct {
	BaseStage
}

// NewParsingStage creates the parsing step
func NewParsingStage() *ParsingStage {
	return &ParsingStage{
		BaseStage: NewBaseStage(StageIDParsing, StageNameParsing, nil),
	}
}

// Execute rejects empty and headerless files by marking the state skipped.
func (s *ParsingStage) Execute(ctx context.Context, state *FileState) (domain.StageResult, error) {
	ds := state.Dataset
	if ds == nil {
		return domain.StageResult{}, NewValidationError(s.ID(), "no dataset supplied")
	}

	if len(ds.Rows) == 0 {
		state.Skipped = true
		state.AddIssues(parseIssue(state.File(), "File is empty",
			"The file contains no rows. Export the data again and re-upload it."))
		return s.result(state, domain.StageError, "File is empty"), nil
	}

	if !hasHeader(ds.Headers) {
		state.Skipped = true
		state.AddIssues(parseIssue(state.File(), "No header row found",
			"No row with column names was found. Add a header row above the data."))
		return s.result(state, domain.StageError, "No header row found"), nil
	}

	rows := ds.DataRowCount()
	res := s.result(state, domain.StageSuccess, fmt.Sprintf("Parsed %d rows and %d columns", rows, len(ds.Headers)))
	if rows == 0 {
		res.Status = domain.StageWarning
		res.Message = "Header found but the file has no data rows"
	}
	res.Details["rows"] = rows
	res.Details["columns"] = len(ds.Headers)
	res.Details["header_row"] = ds.HeaderRow + 1
	res.Details["data_start_row"] = ds.DataStartRow + 1
	res.Details["has_metadata"] = ds.HasMetadata
	return res, nil
}

func hasHeader(headers []string) bool {
	for _, h := range headers {
		if h != "" {
			return true
		}
	}
	return false
}

func parseIssue(file, title, desc string) domain.Issue {
	return domain.Issue{
		ID:          uuid.NewString(),
		File:        file,
		Type:        domain.IssueDataQuality,
		Severity:    domain.SeverityError,
		Title:       title,
		Description: desc,
	}
}

// HeaderAnalysisStage maps source columns to taxonomy fields.
type HeaderAnalysisStage struct {
	BaseStage
	mapper *mapping.Mapper
}

// NewHeaderAnalysisStage creates the header analysis step
func NewHeaderAnalysisStage(mapper *mapping.Mapper) *HeaderAnalysisStage {
	if mapper == nil {
		mapper = mapping.NewMapper(mapping.DefaultOptions())
	}
	return &HeaderAnalysisStage{
		BaseStage: NewBaseStage(StageIDHeaderAnalysis, StageNameHeaderAnalysis, []string{StageIDParsing}),
		mapper:    mapper,
	}
}

// Execute maps every column, consulting the firm taxonomy first.
func (s *HeaderAnalysisStage) Execute(ctx context.Context, state *FileState) (domain.StageResult, error) {
	mappings, issues := s.mapper.MapColumns(state.Dataset, state.Learned)
	state.SetMappings(mappings)
	state.AddIssues(issues...)

	mapped, learned := 0, 0
	for _, m := range mappings {
		if m.IsMapped() {
			mapped++
		}
		if m.Source == domain.SourceLearned {
			learned++
		}
	}

	res := s.result(state, statusFor(issues), fmt.Sprintf("Mapped %d of %d columns", mapped, len(mappings)))
	if mapped == 0 {
		res.Status = domain.StageWarning
		res.Message = "No columns could be mapped"
	}
	res.Details["columns"] = len(mappings)
	res.Details["mapped"] = mapped
	res.Details["learned"] = learned
	res.Details["detected_fields"] = mapping.DetectedFields(mappings)
	return res, nil
}

// DataQualityStage scores the mapped columns.
type DataQualityStage struct {
	BaseStage
	scanner *quality.Scanner
}

// NewDataQualityStage creates the data quality step
func NewDataQualityStage(scanner *quality.Scanner) *DataQualityStage {
	if scanner == nil {
		scanner = quality.NewScanner(0)
	}
	return &DataQualityStage{
		BaseStage: NewBaseStage(StageIDDataQuality, StageNameDataQuality, []string{StageIDHeaderAnalysis}),
		scanner:   scanner,
	}
}

// Execute runs the column rules. The score is advisory and never blocks later steps.
func (s *DataQualityStage) Execute(ctx context.Context, state *FileState) (domain.StageResult, error) {
	report := s.scanner.Scan(state.Dataset, state.Mappings)
	state.Quality = &report
	state.AddIssues(report.Issues...)

	res := s.result(state, statusFor(report.Issues), fmt.Sprintf("Quality score %d/100", report.Score))
	res.Details["quality_score"] = report.Score
	res.Details["checks"] = report.Checks
	return res, nil
}

// StateNormalizationStage resolves the state column to canonical codes.
type StateNormalizationStage struct {
	BaseStage
	normalizer *normalization.Normalizer
}

// NewStateNormalizationStage creates the state normalization step
func NewStateNormalizationStage(normalizer *normalization.Normalizer) *StateNormalizationStage {
	if normalizer == nil {
		normalizer = normalization.NewNormalizer(normalization.Options{})
	}
	return &StateNormalizationStage{
		BaseStage:  NewBaseStage(StageIDStateNormalization, StageNameStateNormalization, []string{StageIDHeaderAnalysis}),
		normalizer: normalizer,
	}
}

// Execute normalizes the strongest state column. Without one it is a warning no-op.
func (s *StateNormalizationStage) Execute(ctx context.Context, state *FileState) (domain.StageResult, error) {
	col, ok := mapping.ColumnFor(state.Mappings, domain.FieldState)
	if !ok {
		return s.result(state, domain.StageWarning, "No state column detected"), nil
	}

	report := s.normalizer.Normalize(state.Dataset, col.ColumnIndex)
	state.SetNormalization(report)
	state.AddIssues(report.Issues...)

	flagged := 0
	for _, nz := range report.Normalizations {
		if nz.Flagged {
			flagged++
		}
	}

	rate := report.SuccessRate()
	res := s.result(state, statusFor(report.Issues),
		fmt.Sprintf("Normalized %d of %d state values (%.0f%%)", report.Resolved, report.NonEmpty, rate*100))
	if res.Status == domain.StageSuccess && flagged > 0 {
		res.Status = domain.StageWarning
	}
	res.Details["column"] = col.SourceColumn
	res.Details["distinct_values"] = len(report.Normalizations)
	res.Details["success_rate"] = rate
	res.Details["flagged"] = flagged
	res.Details["failed_rows"] = report.Failed
	return res, nil
}

// RequiredFieldsStage gates the analysis modules on the mapped fields.
type RequiredFieldsStage struct {
	BaseStage
	catalog []taxonomy.Requirement
}

// NewRequiredFieldsStage creates the required fields step
func NewRequiredFieldsStage(catalog []taxonomy.Requirement) *RequiredFieldsStage {
	if catalog == nil {
		catalog = taxonomy.Catalog
	}
	return &RequiredFieldsStage{
		BaseStage: NewBaseStage(StageIDRequiredFields, StageNameRequiredFields, []string{StageIDHeaderAnalysis}),
		catalog:   catalog,
	}
}

// Execute evaluates module readiness for this file.
func (s *RequiredFieldsStage) Execute(ctx context.Context, state *FileState) (domain.StageResult, error) {
	modules := readiness.Evaluate(state.Mappings, s.catalog)
	issues := readiness.Issues(state.File(), modules)
	state.Modules = modules
	state.AddIssues(issues...)

	proceeding := 0
	for _, m := range modules {
		if m.CanProceed {
			proceeding++
		}
	}

	res := s.result(state, readiness.StageStatus(modules, issues),
		fmt.Sprintf("%d of %d analysis modules can proceed", proceeding, len(modules)))
	res.Details["modules"] = modules
	return res, nil
}

// FirmLearningStage records confident mappings in the firm taxonomy.
type FirmLearningStage struct {
	BaseStage
	sink *learning.Sink
}

// NewFirmLearningStage creates the firm learning step
func NewFirmLearningStage(sink *learning.Sink) *FirmLearningStage {
	if sink == nil {
		sink = learning.NewSink(nil, learning.DefaultThreshold, nil)
	}
	return &FirmLearningStage{
		BaseStage: NewBaseStage(StageIDFirmLearning, StageNameFirmLearning, []string{StageIDHeaderAnalysis}),
		sink:      sink,
	}
}

// Execute always succeeds; store failures are logged by the sink.
func (s *FirmLearningStage) Execute(ctx context.Context, state *FileState) (domain.StageResult, error) {
	added := s.sink.Record(ctx, state.FirmID, state.Mappings)
	state.LearnedCount = added

	res := s.result(state, domain.StageSuccess, fmt.Sprintf("%d mappings added to firm taxonomy", added))
	res.Details["firm_id"] = state.FirmID
	res.Details["added"] = added
	res.Details["threshold"] = s.sink.Threshold()
	return res, nil
}

// FinalizationStage computes the per-file totals.
type FinalizationStage struct {
	BaseStage
}

// NewFinalizationStage creates the finalization step
func NewFinalizationStage() *FinalizationStage {
	return &FinalizationStage{
		BaseStage: NewBaseStage(StageIDFinalization, StageNameFinalization,
			[]string{StageIDHeaderAnalysis, StageIDStateNormalization}),
	}
}

// Execute counts distinct states and sums revenue. Unparseable amounts contribute 0.
func (s *FinalizationStage) Execute(ctx context.Context, state *FileState) (domain.StageResult, error) {
	codes := state.StateCodes()
	state.StatesDetected = len(codes)
	state.TotalRevenue = totalRevenue(state.Dataset, state.Mappings)
	state.Completed = true

	res := s.result(state, domain.StageSuccess,
		fmt.Sprintf("Detected %d states with total revenue %.2f", state.StatesDetected, state.TotalRevenue))
	res.Details["states_detected"] = state.StatesDetected
	res.Details["states"] = codes
	res.Details["total_revenue"] = state.TotalRevenue
	return res, nil
}

func totalRevenue(ds *domain.Dataset, mappings []domain.ColumnMapping) float64 {
	col, ok := mapping.ColumnFor(mappings, domain.FieldRevenue)
	if !ok {
		return 0
	}
	total := 0.0
	for r := ds.DataStartRow; r < len(ds.Rows); r++ {
		if v, ok := taxonomy.ParseAmount(ds.Cell(r, col.ColumnIndex)); ok {
			total += v
		}
	}
	return math.Round(total*100) / 100
}
