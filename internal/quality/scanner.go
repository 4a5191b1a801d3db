// Package quality scores the analysis-critical columns of a dataset and raises
// severity-graded data_quality issues. The score is advisory and never blocks later stages.
package quality

import (
	"fmt"

	"github.com/google/uuid"

	"nexusprep/internal/mapping"
	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

// Score penalties.
const (
	StatePenalty   = 20
	RevenuePenalty = 15
	WagesPenalty   = 15
	DatePenalty    = 10
)

const (
	emptyWarnRatio   = 0.10
	emptyErrorRatio  = 0.30
	numericErrRatio  = 0.10
	defaultMaxAffect = 500
)

// Check is the result of one column rule.
type Check struct {
	Field    domain.FieldID `json:"field"`
	Column   string         `json:"column"`
	Rows     int            `json:"rows"`
	Empty    int            `json:"empty"`
	Invalid  int            `json:"invalid"`
	Penalty  int            `json:"penalty"`
	Severity string         `json:"severity,omitempty"`
}

// Report is the scanner output for one dataset.
type Report struct {
	Score  int
	Checks []Check
	Issues []domain.Issue
}

// Scanner applies the column rules.
type Scanner struct {
	maxAffectedRows int
}

// NewScanner creates a scanner; maxAffectedRows caps the rows listed on each issue.
func NewScanner(maxAffectedRows int) *Scanner {
	if maxAffectedRows <= 0 {
		maxAffectedRows = defaultMaxAffect
	}
	return &Scanner{maxAffectedRows: maxAffectedRows}
}

// Scan runs every rule whose field is mapped.
func (s *Scanner) Scan(ds *domain.Dataset, mappings []domain.ColumnMapping) Report {
	report := Report{Score: 100}
	rows := ds.DataRowCount()

	if col, ok := mapping.ColumnFor(mappings, domain.FieldState); ok {
		s.checkEmpty(ds, col, rows, &report)
	}
	if col, ok := mapping.ColumnFor(mappings, domain.FieldRevenue); ok {
		s.checkNumeric(ds, col, rows, RevenuePenalty, &report)
	}
	if col, ok := mapping.ColumnFor(mappings, domain.FieldWages); ok {
		s.checkNumeric(ds, col, rows, WagesPenalty, &report)
	}
	if col, ok := mapping.ColumnFor(mappings, domain.FieldDate); ok {
		s.checkDates(ds, col, rows, &report)
	}

	report.Score = max(0, report.Score)
	return report
}

func (s *Scanner) checkEmpty(ds *domain.Dataset, col domain.ColumnMapping, rows int, report *Report) {
	var empty []int
	for r := ds.DataStartRow; r < len(ds.Rows); r++ {
		if ds.Cell(r, col.ColumnIndex) == "" {
			empty = append(empty, r+1)
		}
	}
	check := Check{Field: col.SuggestedField, Column: col.SourceColumn, Rows: rows, Empty: len(empty)}
	defer func() { report.Checks = append(report.Checks, check) }()

	ratio := fraction(len(empty), rows)
	if ratio <= emptyWarnRatio {
		return
	}
	sev := domain.SeverityWarning
	if ratio > emptyErrorRatio {
		sev = domain.SeverityError
	}
	check.Penalty, check.Severity = StatePenalty, string(sev)
	report.Score -= StatePenalty
	report.Issues = append(report.Issues, s.issue(ds.Name, sev,
		fmt.Sprintf("%.0f%% of %q values are empty", ratio*100, col.SourceColumn),
		fmt.Sprintf("%d of %d rows have no %s value; those rows cannot be sourced to a state.", len(empty), rows, fieldLabel(col.SuggestedField)),
		empty,
		[]domain.Suggestion{
			{Label: "Fill in missing values and re-upload", Value: "fix"},
			{Label: "Exclude rows without a value", Value: "exclude"},
		}))
}

func (s *Scanner) checkNumeric(ds *domain.Dataset, col domain.ColumnMapping, rows, penalty int, report *Report) {
	var invalid []int
	for r := ds.DataStartRow; r < len(ds.Rows); r++ {
		v := ds.Cell(r, col.ColumnIndex)
		if v == "" {
			continue
		}
		if _, ok := taxonomy.ParseAmount(v); !ok {
			invalid = append(invalid, r+1)
		}
	}
	check := Check{Field: col.SuggestedField, Column: col.SourceColumn, Rows: rows, Invalid: len(invalid)}
	defer func() { report.Checks = append(report.Checks, check) }()

	if len(invalid) == 0 {
		return
	}
	sev := domain.SeverityWarning
	if fraction(len(invalid), rows) > numericErrRatio {
		sev = domain.SeverityError
	}
	check.Penalty, check.Severity = penalty, string(sev)
	report.Score -= penalty
	report.Issues = append(report.Issues, s.issue(ds.Name, sev,
		fmt.Sprintf("%d non-numeric %s values", len(invalid), fieldLabel(col.SuggestedField)),
		fmt.Sprintf("%d values in %q could not be read as amounts and count as 0.", len(invalid), col.SourceColumn),
		invalid,
		[]domain.Suggestion{
			{Label: "Correct the values and re-upload", Value: "fix"},
			{Label: "Treat invalid values as 0", Value: "zero"},
		}))
}

func (s *Scanner) checkDates(ds *domain.Dataset, col domain.ColumnMapping, rows int, report *Report) {
	var invalid []int
	for r := ds.DataStartRow; r < len(ds.Rows); r++ {
		v := ds.Cell(r, col.ColumnIndex)
		if v == "" || taxonomy.IsDate(v) {
			continue
		}
		invalid = append(invalid, r+1)
	}
	check := Check{Field: col.SuggestedField, Column: col.SourceColumn, Rows: rows, Invalid: len(invalid)}
	defer func() { report.Checks = append(report.Checks, check) }()

	if len(invalid) == 0 {
		return
	}
	check.Penalty, check.Severity = DatePenalty, string(domain.SeverityWarning)
	report.Score -= DatePenalty
	report.Issues = append(report.Issues, s.issue(ds.Name, domain.SeverityWarning,
		fmt.Sprintf("%d unrecognized dates", len(invalid)),
		fmt.Sprintf("%d values in %q are not in a recognized date format.", len(invalid), col.SourceColumn),
		invalid,
		[]domain.Suggestion{{Label: "Use YYYY-MM-DD or MM/DD/YYYY dates", Value: "fix"}}))
}

func (s *Scanner) issue(file string, sev domain.Severity, title, desc string, rows []int, suggestions []domain.Suggestion) domain.Issue {
	affected := rows
	if len(affected) > s.maxAffectedRows {
		affected = affected[:s.maxAffectedRows]
	}
	return domain.Issue{
		ID:            uuid.NewString(),
		File:          file,
		Type:          domain.IssueDataQuality,
		Severity:      sev,
		Title:         title,
		Description:   desc,
		AffectedRows:  affected,
		AffectedCount: len(rows),
		Suggestions:   suggestions,
	}
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func fieldLabel(id domain.FieldID) string {
	if f, ok := taxonomy.Lookup(id); ok {
		return f.Label
	}
	return string(id)
}
