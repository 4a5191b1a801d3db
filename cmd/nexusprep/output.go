package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"nexusprep/pkg/contracts/domain"
)

func renderJSON(w io.Writer, result *domain.ValidationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// renderReport prints the stages, mappings, issues and summary as tables.
func renderReport(w io.Writer, result *domain.ValidationResult) {
	section := func(title string) {
		fmt.Fprint(w, pterm.DefaultSection.Sprint(title))
	}
	table := func(data pterm.TableData) {
		s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			fmt.Fprintln(w, err)
			return
		}
		fmt.Fprintln(w, s)
	}

	section("Stages")
	stages := pterm.TableData{{"File", "Stage", "Status", "Message"}}
	for _, s := range result.Stages {
		stages = append(stages, []string{s.File, string(s.ID), statusText(s.Status), s.Message})
	}
	table(stages)

	section("Column mappings")
	mappings := pterm.TableData{{"File", "Column", "Field", "Confidence", "Source"}}
	for _, m := range result.Mappings {
		field := string(m.SuggestedField)
		if !m.IsMapped() {
			field = "-"
		}
		mappings = append(mappings, []string{m.File, m.SourceColumn, field, strconv.Itoa(m.Confidence), string(m.Source)})
	}
	table(mappings)

	if len(result.Issues) > 0 {
		section("Issues")
		issues := pterm.TableData{{"File", "Severity", "Type", "Title", "Rows"}}
		for _, is := range result.Issues {
			issues = append(issues, []string{is.File, severityText(is.Severity), string(is.Type), is.Title, affected(is)})
		}
		table(issues)
	}

	s := result.Summary
	section("Summary")
	table(pterm.TableData{
		{"Metric", "Value"},
		{"Files", strconv.Itoa(s.TotalFiles)},
		{"Rows", strconv.Itoa(s.TotalRows)},
		{"Mapped columns", strconv.Itoa(s.MappedColumns)},
		{"States", fmt.Sprintf("%d (%s)", s.StatesDetected, strings.Join(s.States, ", "))},
		{"Total revenue", strconv.FormatFloat(s.TotalRevenue, 'f', 2, 64)},
		{"Quality score", fmt.Sprintf("%d/100", s.QualityScore)},
		{"Added to firm taxonomy", strconv.Itoa(s.AddedToFirmTaxonomy)},
		{"Errors / warnings", fmt.Sprintf("%d / %d", s.Errors, s.Warnings)},
	})

	modules := pterm.TableData{{"Module", "Status", "Missing required"}}
	for _, m := range s.Modules {
		modules = append(modules, []string{string(m.Module), string(m.Status), joinFields(m.MissingRequired)})
	}
	table(modules)

	switch {
	case s.Aborted:
		fmt.Fprintln(w, pterm.Error.Sprint("Validation stopped before all stages completed"))
	case s.ReadyForAnalysis:
		fmt.Fprintln(w, pterm.Success.Sprint("Ready for analysis"))
	default:
		fmt.Fprintln(w, pterm.Warning.Sprint("Not ready for analysis"))
	}
}

func statusText(s domain.StageStatus) string {
	switch s {
	case domain.StageSuccess:
		return pterm.Green(string(s))
	case domain.StageWarning:
		return pterm.Yellow(string(s))
	case domain.StageError:
		return pterm.Red(string(s))
	default:
		return string(s)
	}
}

func severityText(s domain.Severity) string {
	switch s {
	case domain.SeverityError:
		return pterm.Red(string(s))
	case domain.SeverityWarning:
		return pterm.Yellow(string(s))
	default:
		return string(s)
	}
}

func affected(is domain.Issue) string {
	if is.AffectedCount == 0 {
		return ""
	}
	return strconv.Itoa(is.AffectedCount)
}

func joinFields(fields []domain.FieldID) string {
	if len(fields) == 0 {
		return "-"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}
