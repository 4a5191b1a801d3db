// Package config provides centralized configuration management for nexusprep.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML file: $NEXUS_CONFIG, ./config.yaml or ./configs/config.yaml
//	3. Environment variables prefixed NEXUS_
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	NEXUS_SERVER_PORT=9000
//	NEXUS_VALIDATION_FUZZY_THRESHOLD=0.35
//	NEXUS_LEARNING_DRIVER=sqlite
//	NEXUS_LEARNING_DSN=/var/lib/nexusprep/taxonomy.db
//	NEXUS_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
