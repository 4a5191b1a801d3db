// Package shared holds helpers used across nexusprep packages that belong to no
// single domain.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - A buffered slog handler for asserting on structured log events
//   - Dataset fixtures shaped like common accounting exports
package shared
