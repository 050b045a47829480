// Package metrics exposes docgate's Prometheus metrics.
//
// Metrics (with the default "docgate" namespace):
//   - docgate_gate_permits_available: permits left in the current window
//   - docgate_gate_waiters: callers queued for a permit
//   - docgate_gate_limit: configured permits per window
//   - docgate_gate_period_seconds: configured window length
//   - docgate_gate_permits_granted_total: permits handed out
//   - docgate_gate_refills_total: windows that restored at least one permit
//   - docgate_submissions_total{outcome,status}: submission attempts
//   - docgate_submission_duration_seconds{outcome}: HTTP exchange latency
//   - docgate_admission_wait_seconds: time spent waiting for a permit
//   - docgate_inbox_files_total{result}: inbox pairs processed
//   - docgate_journal_entries_total{state}: journal writes and drops
//
// The Collector uses its own registry, so tests and embedders never touch the
// global default registry.
package metrics
