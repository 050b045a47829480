// Package retention prunes old journal entries.
//
// Pruning runs in two phases. The age phase deletes entries submitted more
// than Days ago; the count phase then deletes the oldest entries until at
// most MaxRecords remain. Either phase is skipped when its limit is zero.
//
// Scheduler runs the pruner on a standard five-field cron expression, for
// example "0 3 * * *" for daily at 03:00.
package retention
