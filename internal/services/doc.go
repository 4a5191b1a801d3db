// Package services sits between the transports (HTTP, CLI) and the validation
// pipeline. It turns uploads, local paths and Google Sheets ranges into datasets,
// runs the pipeline for a firm, and keeps recent results addressable by ID.
//
// Uploads are parsed concurrently; the pipeline itself always receives the datasets
// in input order and runs them sequentially.
//
//	svc, err := services.NewValidationService(manager, sink, services.Options{CacheSize: 256}, logger)
//	result, err := svc.ValidateUploads(ctx, "acme", uploads)
package services
