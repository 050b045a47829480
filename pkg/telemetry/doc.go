// Package telemetry groups the observability packages of docgate.
//
//   - logging: slog setup with credential redaction and submission context
//   - metrics: Prometheus collectors for submissions, the gate and the journal
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and readiness endpoints for the watch listener
//
// Each subpackage is configured from the matching section of
// config.TelemetryConfig and is usable on its own.
package telemetry
