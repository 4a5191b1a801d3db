// Package api contains the request and response bodies of the v1 HTTP API.
package api

import (
	"time"

	"nexusprep/pkg/contracts/domain"
)

// SheetsValidationRequest asks for a validation of Google Sheets ranges.
// Each range becomes one dataset, validated in the order given.
type SheetsValidationRequest struct {
	FirmID        string   `json:"firm_id" validate:"omitempty,max=128,firm_id"`
	SpreadsheetID string   `json:"spreadsheet_id" validate:"required,min=10,max=128"`
	Ranges        []string `json:"ranges" validate:"required,min=1,max=20,dive,max=256,sheet_range"`
}

// FirmRequest carries a firm identifier taken from a form field or path.
type FirmRequest struct {
	FirmID string `json:"firm_id" validate:"omitempty,max=128,firm_id"`
}

// TaxonomyEntry is one learned header mapping of a firm.
type TaxonomyEntry struct {
	Header       string         `json:"header"`
	SourceColumn string         `json:"source_column"`
	Field        domain.FieldID `json:"field"`
	Confidence   int            `json:"confidence"`
	TimesSeen    int            `json:"times_seen"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TaxonomyResponse lists a firm's learned mappings
type TaxonomyResponse struct {
	FirmID  string          `json:"firm_id"`
	Count   int             `json:"count"`
	Entries []TaxonomyEntry `json:"entries"`
}
