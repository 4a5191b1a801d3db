package services

import "errors"

var (
	ErrNoFiles           = errors.New("no files supplied")
	ErrResultNotFound    = errors.New("validation result not found")
	ErrSheetsUnavailable = errors.New("google sheets ingestion is not configured")
	ErrTaxonomyDisabled  = errors.New("firm taxonomy store is not configured")
)
