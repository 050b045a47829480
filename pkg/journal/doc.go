// Package journal defines the audit trail of submission attempts.
//
// Every call that reaches the submission client, successful or not, can be
// recorded as an Entry. Entries are written asynchronously by the recorder
// subpackage, kept in one of the storage backends and pruned by the
// retention subpackage.
//
// # Subpackages
//
//   - storage: memory, SQLite and Redis implementations of Storage
//   - recorder: a submission.Observer that queues entries for storage
//   - retention: age and count based pruning, optionally on a cron schedule
//   - export: JSON and CSV writers used by the CLI
//
// The journal holds submission history only. Admission state is never
// persisted.
package journal
