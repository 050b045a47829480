// Package storage provides journal.Storage backends.
//
//   - MemoryStorage keeps entries in a map. It is used by tests and when the
//     journal only needs to live as long as the process.
//   - SQLiteStorage writes to a SQLite file through database/sql, with either
//     the pure-Go driver ("sqlite") or the cgo driver ("sqlite3").
//   - RedisStorage keeps one hash per entry plus a sorted set ordered by
//     submission time, for deployments that share a journal between hosts.
//
// Open picks a backend from the journal configuration.
package storage
