// Package app provides application initialization and lifecycle management.
//
// # Initialization Flow
//
//	1. Initialize OpenTelemetry from the telemetry section
//	2. Open the firm taxonomy store (memory or SQLite)
//	3. Build the pipeline manager, websocket hub and services
//	4. Set up HTTP handlers and middleware
//	5. Serve until the context is cancelled, then shut down gracefully
//
// # Usage
//
//	a, err := app.NewApplication(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return a.Run(ctx)
package app
