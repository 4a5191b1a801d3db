// Package operations runs the validation pipeline over ingested datasets.
//
// Each file passes through seven stages in dependency order:
//
//	parsing → header_analysis → data_quality, state_normalization,
//	required_fields, firm_learning → finalization
//
// Core Components:
//
// Manager: runs the registered stages file by file, accumulates stage results,
// issues, mappings and normalizations into one ValidationResult, and builds the
// per-file and aggregate summaries. Files are processed sequentially in input order.
//
// Step: a single unit of work. Steps declare their dependencies and receive the
// per-file FileState, which carries the dataset and everything earlier steps produced.
//
// Registry: holds steps and orders them with Kahn's algorithm, registration order
// breaking ties.
//
// Faults: a step that returns an error or panics ends the run. The fault is caught
// once in Manager.Validate and recorded as a single issue of type "error"; whatever
// was accumulated up to that point is returned. Data problems are never faults.
//
// Example usage:
//
//	manager := operations.NewManager(operations.ConfigFrom(cfg), sink, logger)
//	result := manager.ValidateForFirm(ctx, "acme", datasets)
package operations
