// Package http implements the HTTP handlers for the validation API.
//
// Handlers stay thin: they parse the request, call the service layer and render
// the result. Failures are mapped to *errors.APIError values and written as
// RFC 7807 problem details by the shared error handler.
//
// Routes:
//
//	POST /api/v1/validations                 multipart upload of one or more files
//	POST /api/v1/validations/sheets          Google Sheets ranges
//	GET  /api/v1/validations/{id}            a recent result by run ID
//	GET  /api/v1/firms/{firmID}/taxonomy     learned mappings for a firm
//	GET  /api/v1/firms/{firmID}/taxonomy/{header}  one learned mapping
//	GET  /ws                                 stage progress events
//	GET  /healthz, /readyz, /metrics
package http
