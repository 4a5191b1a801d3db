// Package readiness decides, per analysis module, whether the mapped fields are enough
// to run the analysis.
package readiness

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"nexusprep/internal/mapping"
	"nexusprep/internal/taxonomy"
	"nexusprep/pkg/contracts/domain"
)

// Evaluate gates every catalog module on the fields detected in mappings.
func Evaluate(mappings []domain.ColumnMapping, catalog []taxonomy.Requirement) []domain.ModuleReadiness {
	return EvaluateFields(mapping.DetectedFields(mappings), catalog)
}

// EvaluateFields gates every catalog module on an explicit detected-field set.
func EvaluateFields(detected []domain.FieldID, catalog []taxonomy.Requirement) []domain.ModuleReadiness {
	have := make(map[domain.FieldID]bool, len(detected))
	for _, f := range detected {
		have[f] = true
	}

	out := make([]domain.ModuleReadiness, 0, len(catalog))
	for _, req := range catalog {
		r := domain.ModuleReadiness{
			Module:          req.Module,
			MissingRequired: missing(req.Required, have),
			MissingOptional: missing(req.Optional, have),
		}
		r.CanProceed = len(r.MissingRequired) == 0
		switch {
		case !r.CanProceed:
			r.Status = domain.ReadinessBlocked
		case len(r.MissingOptional) > 0:
			r.Status = domain.ReadinessLimited
		default:
			r.Status = domain.ReadinessFull
		}
		out = append(out, r)
	}
	return out
}

func missing(fields []domain.FieldID, have map[domain.FieldID]bool) []domain.FieldID {
	out := []domain.FieldID{}
	for _, f := range fields {
		if !have[f] {
			out = append(out, f)
		}
	}
	return out
}

// Combine merges per-file readiness into a run-level view. Required fields must come
// from one file, so each module takes its best per-file evaluation (full, then limited,
// then blocked; fewer missing fields break ties). With no files every module is blocked.
func Combine(perFile [][]domain.ModuleReadiness, catalog []taxonomy.Requirement) []domain.ModuleReadiness {
	out := EvaluateFields(nil, catalog)
	for i := range out {
		for _, modules := range perFile {
			for _, m := range modules {
				if m.Module == out[i].Module && better(m, out[i]) {
					out[i] = m
				}
			}
		}
	}
	return out
}

func better(a, b domain.ModuleReadiness) bool {
	if rank(a.Status) != rank(b.Status) {
		return rank(a.Status) > rank(b.Status)
	}
	return len(a.MissingRequired)+len(a.MissingOptional) < len(b.MissingRequired)+len(b.MissingOptional)
}

func rank(s domain.ReadinessStatus) int {
	switch s {
	case domain.ReadinessFull:
		return 2
	case domain.ReadinessLimited:
		return 1
	default:
		return 0
	}
}

// Issues raises one missing_field error per blocked module.
func Issues(file string, modules []domain.ModuleReadiness) []domain.Issue {
	var issues []domain.Issue
	for _, m := range modules {
		if m.CanProceed {
			continue
		}
		names := make([]string, len(m.MissingRequired))
		suggestions := make([]domain.Suggestion, len(m.MissingRequired))
		for i, f := range m.MissingRequired {
			names[i] = label(f)
			suggestions[i] = domain.Suggestion{Label: fmt.Sprintf("Map a column to %s", label(f)), Value: string(f)}
		}
		issues = append(issues, domain.Issue{
			ID:          uuid.NewString(),
			File:        file,
			Type:        domain.IssueMissingField,
			Severity:    domain.SeverityError,
			Title:       fmt.Sprintf("%s analysis is blocked", titleCase(string(m.Module))),
			Description: fmt.Sprintf("Required fields not found: %s.", strings.Join(names, ", ")),
			Suggestions: suggestions,
		})
	}
	return issues
}

// StageStatus is error when no module can proceed, warning when some issues exist, and
// success otherwise.
func StageStatus(modules []domain.ModuleReadiness, issues []domain.Issue) domain.StageStatus {
	proceeding := 0
	for _, m := range modules {
		if m.CanProceed {
			proceeding++
		}
	}
	switch {
	case proceeding == 0:
		return domain.StageError
	case len(issues) > 0:
		return domain.StageWarning
	default:
		return domain.StageSuccess
	}
}

// Ready reports whether at least one module can proceed.
func Ready(modules []domain.ModuleReadiness) bool {
	for _, m := range modules {
		if m.CanProceed {
			return true
		}
	}
	return false
}

func label(f domain.FieldID) string {
	if def, ok := taxonomy.Lookup(f); ok {
		return def.Label
	}
	return string(f)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
