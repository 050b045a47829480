// Package tracing configures OpenTelemetry tracing for docgate.
//
// # Overview
//
// New builds an SDK tracer provider that exports spans to an OTLP gRPC
// collector and installs it, together with the W3C Trace Context and Baggage
// propagators, as the process-wide default. When tracing is disabled a noop
// provider is used and spans cost next to nothing.
//
// The submission client opens one "submission.submit" span per attempt
// through the global provider, so nothing else needs to be wired once New
// has run. Outgoing submissions carry a traceparent header via Inject, and
// the watch listener accepts one via HTTPMiddleware.
//
// # Sampling Strategies
//
//   - always: sample every submission
//   - never: sample nothing while keeping the exporter configured
//   - ratio: sample a fraction of traces by trace ID
//
// All strategies are wrapped in ParentBased, so an incoming sampled parent
// is always honoured.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
package tracing
