package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the journal tables. Timestamps are stored as Unix
// nanoseconds so both drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS journal (
    id TEXT PRIMARY KEY,
    submitted_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,

    document_type TEXT NOT NULL,
    document_format TEXT NOT NULL,
    document_hash TEXT NOT NULL DEFAULT '',

    wait_ns INTEGER NOT NULL DEFAULT 0,
    latency_ns INTEGER NOT NULL DEFAULT 0,

    status_code INTEGER NOT NULL DEFAULT 0,
    outcome TEXT NOT NULL,
    response TEXT NOT NULL DEFAULT '',
    error TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_submitted_at ON journal(submitted_at);
CREATE INDEX IF NOT EXISTS idx_journal_outcome ON journal(outcome);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the newest recorded schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const entryColumns = `id, submitted_at, recorded_at, document_type, document_format, document_hash,
	wait_ns, latency_ns, status_code, outcome, response, error`
