package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/journal"
)

const (
	// DriverSQLite is the pure-Go driver registered by modernc.org/sqlite.
	DriverSQLite = "sqlite"

	// DriverSQLite3 is the cgo driver registered by github.com/mattn/go-sqlite3.
	DriverSQLite3 = "sqlite3"
)

// SQLiteStorage implements journal.Storage on a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	config config.SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (and if needed creates) the database at cfg.Path
// and migrates it to the current schema.
func NewSQLiteStorage(cfg config.SQLiteConfig) (*SQLiteStorage, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverSQLite3 {
		return nil, journal.NewStorageError("sqlite", "open", fmt.Errorf("unsupported driver %q", cfg.Driver))
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = config.DefaultJournalSQLiteMaxOpen
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = config.DefaultJournalSQLiteBusyTimeout
	}

	logger := slog.Default().With("component", "journal.storage.sqlite")

	inMemory := cfg.Path == ":memory:"
	dsn := cfg.Path
	if !inMemory {
		dsn = sqliteDSN(cfg)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "open", err)
	}

	if inMemory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(inMemory); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// sqliteDSN puts the busy timeout in the connection string so every pooled
// connection gets it. The two drivers spell the parameter differently.
func sqliteDSN(cfg config.SQLiteConfig) string {
	ms := cfg.BusyTimeout.Milliseconds()
	if cfg.Driver == DriverSQLite3 {
		return fmt.Sprintf("%s?_busy_timeout=%d", cfg.Path, ms)
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", cfg.Path, ms)
}

// initialize applies pragmas and creates the schema. WAL is a property of
// the database file, so one connection setting it is enough.
func (s *SQLiteStorage) initialize(inMemory bool) error {
	if inMemory {
		// A single connection; the DSN carries no parameters.
		busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
			return journal.NewStorageError("sqlite", "set_busy_timeout", err)
		}
	} else {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return journal.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return journal.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return journal.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return journal.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return journal.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store inserts entry, replacing any row with the same ID.
func (s *SQLiteStorage) Store(ctx context.Context, entry *journal.Entry) error {
	var errorVal any
	if entry.Error != "" {
		errorVal = entry.Error
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO journal (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SubmittedAt.UnixNano(),
		entry.RecordedAt.UnixNano(),
		entry.DocumentType,
		entry.DocumentFormat,
		entry.DocumentHash,
		int64(entry.Wait),
		int64(entry.Latency),
		entry.StatusCode,
		entry.Outcome,
		entry.Response,
		errorVal,
	)
	if err != nil {
		return journal.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Get returns the entry with id.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*journal.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journal.NewStorageError("sqlite", "get", journal.ErrNotFound)
	}
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "get", err)
	}
	return entry, nil
}

// Query returns matching entries ordered by submission time.
func (s *SQLiteStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.Entry, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := `SELECT ` + entryColumns + ` FROM journal`
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	order := "DESC"
	if query.Ascending() {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY submitted_at %s, id %s", order, order)

	// SQLite needs a LIMIT clause before OFFSET; -1 means unbounded.
	limit := -1
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	entries := []*journal.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, journal.NewStorageError("sqlite", "scan", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}

	return entries, nil
}

// Count returns the number of matching entries.
func (s *SQLiteStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, journal.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes matching entries.
func (s *SQLiteStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return journal.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause returns the WHERE conditions (without the keyword) and
// their arguments.
func buildWhereClause(query *journal.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.Since != nil {
		conditions = append(conditions, "submitted_at >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if query.Until != nil {
		conditions = append(conditions, "submitted_at <= ?")
		args = append(args, query.Until.UnixNano())
	}
	if query.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, query.Outcome)
	}

	return strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*journal.Entry, error) {
	var (
		entry                 journal.Entry
		submittedNs, recordNs int64
		waitNs, latencyNs     int64
		errorVal              sql.NullString
	)

	err := row.Scan(
		&entry.ID,
		&submittedNs,
		&recordNs,
		&entry.DocumentType,
		&entry.DocumentFormat,
		&entry.DocumentHash,
		&waitNs,
		&latencyNs,
		&entry.StatusCode,
		&entry.Outcome,
		&entry.Response,
		&errorVal,
	)
	if err != nil {
		return nil, err
	}

	entry.SubmittedAt = time.Unix(0, submittedNs).UTC()
	entry.RecordedAt = time.Unix(0, recordNs).UTC()
	entry.Wait = time.Duration(waitNs)
	entry.Latency = time.Duration(latencyNs)
	if errorVal.Valid {
		entry.Error = errorVal.String
	}

	return &entry, nil
}
