// Package exporter writes validated datasets in the form the downstream nexus engine
// reads.
//
// CSVWriter handles the file mechanics (directories, UTF-8 BOM for Excel, streaming).
// WriteNormalizedCSV renames mapped columns to canonical field IDs, replaces state
// values with their canonical codes and reformats amounts.
//
// Example usage:
//
//	exp := exporter.NewNormalizedExporter("out", logger)
//	paths, err := exp.ExportResult(datasets, result)
package exporter
