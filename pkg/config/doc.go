// Package config provides configuration management for docgate.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("docgate.yaml")
//
// An empty path starts from defaults, so docgate runs without a file.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention DOCGATE_SECTION_FIELD.
// For example:
//
//   - DOCGATE_GATE_LIMIT overrides gate.limit
//   - DOCGATE_CLIENT_TOKEN overrides client.token
//   - DOCGATE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize(path); err != nil {
//	    return err
//	}
//	cfg := config.GetConfig()
package config
