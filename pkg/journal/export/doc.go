// Package export writes journal entries as JSON or CSV.
//
// JSON output is always an array. CSV output has one row per entry with
// durations in milliseconds and timestamps in RFC 3339.
package export
