package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

// DuplicateIssues raises one duplicate_column warning per field claimed by more than one
// column. The involved columns are offered as suggestions, strongest first; no column is
// picked automatically.
func DuplicateIssues(file string, mappings []domain.ColumnMapping) []domain.Issue {
	byField := map[domain.FieldID][]domain.ColumnMapping{}
	var order []domain.FieldID
	for _, m := range mappings {
		if !m.IsMapped() {
			continue
		}
		if _, seen := byField[m.SuggestedField]; !seen {
			order = append(order, m.SuggestedField)
		}
		byField[m.SuggestedField] = append(byField[m.SuggestedField], m)
	}

	var issues []domain.Issue
	for _, field := range order {
		cols := byField[field]
		if len(cols) < 2 {
			continue
		}
		sort.SliceStable(cols, func(i, j int) bool { return cols[i].Confidence > cols[j].Confidence })

		names := make([]string, 0, len(cols))
		suggestions := make([]domain.Suggestion, 0, len(cols))
		for _, c := range cols {
			names = append(names, fmt.Sprintf("%q", c.SourceColumn))
			suggestions = append(suggestions, domain.Suggestion{
				Label:      fmt.Sprintf("Use %q as %s", c.SourceColumn, fieldLabel(field)),
				Value:      c.SourceColumn,
				Confidence: c.Confidence,
			})
		}
		issues = append(issues, domain.Issue{
			ID:          uuid.NewString(),
			File:        file,
			Type:        domain.IssueDuplicateColumn,
			Severity:    domain.SeverityWarning,
			Title:       fmt.Sprintf("Multiple columns detected as %s", fieldLabel(field)),
			Description: fmt.Sprintf("Columns %s all map to %s. Choose the one to use.", strings.Join(names, ", "), field),
			Suggestions: suggestions,
		})
	}
	return issues
}

func (m *Mapper) lowConfidenceIssues(file string, mappings []domain.ColumnMapping) []domain.Issue {
	var issues []domain.Issue
	for _, cm := range mappings {
		if cm.Confidence >= m.opts.MappingThreshold {
			continue
		}
		suggestions := make([]domain.Suggestion, 0, len(cm.Alternatives)+1)
		for _, alt := range cm.Alternatives {
			suggestions = append(suggestions, domain.Suggestion{
				Label:      fmt.Sprintf("Map to %s", fieldLabel(alt.Field)),
				Value:      string(alt.Field),
				Confidence: alt.Confidence,
			})
		}
		suggestions = append(suggestions, domain.Suggestion{Label: "Ignore this column", Value: string(domain.FieldIgnore)})
		issues = append(issues, domain.Issue{
			ID:          uuid.NewString(),
			File:        file,
			Type:        domain.IssueColumnMapping,
			Severity:    domain.SeverityWarning,
			Title:       fmt.Sprintf("Could not identify column %q", cm.SourceColumn),
			Description: fmt.Sprintf("No field matched %q with at least %d%% confidence.", cm.SourceColumn, m.opts.MappingThreshold),
			Suggestions: suggestions,
		})
	}
	return issues
}

func fieldLabel(id domain.FieldID) string {
	if f, ok := taxonomy.Lookup(id); ok {
		return f.Label
	}
	return string(id)
}
