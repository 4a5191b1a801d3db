package domain

// IssueType classifies an accumulated issue.
type IssueType string

const (
	IssueColumnMapping      IssueType = "column_mapping"
	IssueDuplicateColumn    IssueType = "duplicate_column"
	IssueDataQuality        IssueType = "data_quality"
	IssueStateNormalization IssueType = "state_normalization"
	IssueMissingField       IssueType = "missing_field"
	IssueError              IssueType = "error"
)

// Severity grades an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Suggestion is a ranked remediation choice offered to the operator.
type Suggestion struct {
	Label      string `json:"label"`
	Value      string `json:"value,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
}

// Issue is a data problem surfaced to the operator. Issues are accumulated, never thrown.
type Issue struct {
	ID            string       `json:"id"`
	File          string       `json:"file,omitempty"`
	Type          IssueType    `json:"type"`
	Severity      Severity     `json:"severity"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	AffectedRows  []int        `json:"affected_rows,omitempty"`
	AffectedCount int          `json:"affected_count,omitempty"`
	Suggestions   []Suggestion `json:"suggestions,omitempty"`
}

// CountBySeverity tallies issues of the given severity.
func CountBySeverity(issues []Issue, sev Severity) int {
	n := 0
	for _, is := range issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}
