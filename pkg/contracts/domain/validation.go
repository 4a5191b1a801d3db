package domain

import "time"

// StageID names one of the seven pipeline stages.
type StageID string

const (
	StageParsing            StageID = "parsing"
	StageHeaderAnalysis     StageID = "header_analysis"
	StageDataQuality        StageID = "data_quality"
	StageStateNormalization StageID = "state_normalization"
	StageRequiredFields     StageID = "required_fields"
	StageFirmLearning       StageID = "firm_learning"
	StageFinalization       StageID = "finalization"
)

// StageStatus is the outcome of a stage.
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageWarning StageStatus = "warning"
	StageError   StageStatus = "error"
)

// StageResult reports one stage execution for one file.
type StageResult struct {
	ID       StageID        `json:"id"`
	File     string         `json:"file"`
	Status   StageStatus    `json:"status"`
	Progress float64        `json:"progress"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Module is a downstream tax-analysis module.
type Module string

const (
	ModuleSales     Module = "sales"
	ModuleIncome    Module = "income"
	ModulePayroll   Module = "payroll"
	ModuleFranchise Module = "franchise"
)

// ReadinessStatus is a module's gate verdict.
type ReadinessStatus string

const (
	ReadinessFull    ReadinessStatus = "full"
	ReadinessLimited ReadinessStatus = "limited"
	ReadinessBlocked ReadinessStatus = "blocked"
)

// ModuleReadiness is derived fresh each run and never persisted.
type ModuleReadiness struct {
	Module          Module          `json:"module"`
	CanProceed      bool            `json:"can_proceed"`
	MissingRequired []FieldID       `json:"missing_required"`
	MissingOptional []FieldID       `json:"missing_optional"`
	Status          ReadinessStatus `json:"status"`
}

// FileSummary holds per-file totals and readiness.
type FileSummary struct {
	File              string            `json:"file"`
	Rows              int               `json:"rows"`
	Columns           int               `json:"columns"`
	MappedColumns     int               `json:"mapped_columns"`
	DetectedFields    []FieldID         `json:"detected_fields"`
	QualityScore      int               `json:"quality_score"`
	StatesDetected    int               `json:"states_detected"`
	TotalRevenue      float64           `json:"total_revenue"`
	NormalizationRate float64           `json:"normalization_rate"`
	LearnedMappings   int               `json:"learned_mappings"`
	Modules           []ModuleReadiness `json:"modules"`
	Completed         bool              `json:"completed"`
}

// Summary aggregates a run across all files.
type Summary struct {
	TotalFiles          int               `json:"total_files"`
	TotalRows           int               `json:"total_rows"`
	MappedColumns       int               `json:"mapped_columns"`
	DetectedFields      []FieldID         `json:"detected_fields"`
	StatesDetected      int               `json:"states_detected"`
	States              []string          `json:"states"`
	TotalRevenue        float64           `json:"total_revenue"`
	QualityScore        int               `json:"quality_score"`
	AddedToFirmTaxonomy int               `json:"added_to_firm_taxonomy"`
	Errors              int               `json:"errors"`
	Warnings            int               `json:"warnings"`
	Modules             []ModuleReadiness `json:"modules"`
	ReadyForAnalysis    bool              `json:"ready_for_analysis"`
	Aborted             bool              `json:"aborted"`
}

// ValidationResult is the full output of one validation run.
type ValidationResult struct {
	ID             string          `json:"id"`
	FirmID         string          `json:"firm_id,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
	Stages         []StageResult   `json:"stages"`
	Issues         []Issue         `json:"issues"`
	Mappings       []ColumnMapping `json:"mappings"`
	Normalizations []Normalization `json:"normalizations"`
	Files          []FileSummary   `json:"files"`
	Summary        Summary         `json:"summary"`
}

// MappingsForFile returns the column mappings scoped to one file.
func (r *ValidationResult) MappingsForFile(file string) []ColumnMapping {
	var out []ColumnMapping
	for _, m := range r.Mappings {
		if m.File == file {
			out = append(out, m)
		}
	}
	return out
}

// NormalizationsForFile returns the normalizations scoped to one file.
func (r *ValidationResult) NormalizationsForFile(file string) []Normalization {
	var out []Normalization
	for _, n := range r.Normalizations {
		if n.File == file {
			out = append(out, n)
		}
	}
	return out
}

// IssuesOfType filters issues by type.
func (r *ValidationResult) IssuesOfType(t IssueType) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Type == t {
			out = append(out, is)
		}
	}
	return out
}
