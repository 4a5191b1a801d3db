package operations

import (
	"nexusprep/internal/mapping"
	"nexusprep/internal/normalization"
	"nexusprep/internal/quality"
	"nexusprep/internal/readiness"
	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

// FileState carries one file through the pipeline. Issues, mappings and
// normalizations are written through to the run result as soon as a step produces
// them, so a fault later in the run keeps everything gathered so far.
type FileState struct {
	Dataset *domain.Dataset
	FirmID  string

	// Firm taxonomy loaded once per run, keyed by normalized header.
	Learned map[string]mapping.Learned

	Mappings      []domain.ColumnMapping
	Quality       *quality.Report
	Normalization *normalization.Report
	Modules       []domain.ModuleReadiness

	LearnedCount   int
	StatesDetected int
	TotalRevenue   float64

	// Skipped is set when parsing rejects the file; later steps do not run.
	Skipped   bool
	Completed bool

	issues []domain.Issue
	result *domain.ValidationResult
}

// NewFileState creates the state for one dataset writing into result.
func NewFileState(ds *domain.Dataset, firmID string, learned map[string]mapping.Learned, result *domain.ValidationResult) *FileState {
	if learned == nil {
		learned = map[string]mapping.Learned{}
	}
	if result == nil {
		result = &domain.ValidationResult{}
	}
	return &FileState{
		Dataset: ds,
		FirmID:  firmID,
		Learned: learned,
		result:  result,
	}
}

// File returns the file name that scopes this state's output.
func (s *FileState) File() string {
	if s.Dataset == nil {
		return ""
	}
	return s.Dataset.Name
}

// AddIssues records issues against this file.
func (s *FileState) AddIssues(issues ...domain.Issue) {
	for _, is := range issues {
		if is.File == "" {
			is.File = s.File()
		}
		s.issues = append(s.issues, is)
		s.result.Issues = append(s.result.Issues, is)
	}
}

// Issues returns the issues raised for this file so far.
func (s *FileState) Issues() []domain.Issue {
	return s.issues
}

// SetMappings stores the header-analysis output.
func (s *FileState) SetMappings(mappings []domain.ColumnMapping) {
	s.Mappings = mappings
	s.result.Mappings = append(s.result.Mappings, mappings...)
}

// SetNormalization stores the state-normalization output.
func (s *FileState) SetNormalization(report normalization.Report) {
	s.Normalization = &report
	s.result.Normalizations = append(s.result.Normalizations, report.Normalizations...)
}

// StateCodes returns the distinct resolved state codes in first-seen order.
func (s *FileState) StateCodes() []string {
	if s.Normalization == nil {
		return nil
	}
	seen := map[string]bool{}
	var codes []string
	for _, nz := range s.Normalization.Normalizations {
		code := nz.Code()
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

// Summary reports the totals for this file. Steps that never ran contribute zero values.
func (s *FileState) Summary() domain.FileSummary {
	detected := mapping.DetectedFields(s.Mappings)
	mapped := 0
	for _, m := range s.Mappings {
		if m.IsMapped() {
			mapped++
		}
	}

	summary := domain.FileSummary{
		File:            s.File(),
		MappedColumns:   mapped,
		DetectedFields:  detected,
		StatesDetected:  s.StatesDetected,
		TotalRevenue:    s.TotalRevenue,
		LearnedMappings: s.LearnedCount,
		Modules:         s.Modules,
		Completed:       s.Completed,
	}
	if s.Dataset != nil {
		summary.Rows = s.Dataset.DataRowCount()
		summary.Columns = len(s.Dataset.Headers)
	}
	if s.Quality != nil {
		summary.QualityScore = s.Quality.Score
	}
	if s.Normalization != nil {
		summary.NormalizationRate = s.Normalization.SuccessRate()
	}
	if summary.Modules == nil {
		summary.Modules = readiness.EvaluateFields(detected, taxonomy.Catalog)
	}
	if summary.DetectedFields == nil {
		summary.DetectedFields = []domain.FieldID{}
	}
	return summary
}
