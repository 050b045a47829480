package journal

import (
	"context"
	"io"
	"time"
)

// Entry is the journal record of one submission attempt.
type Entry struct {
	// ID is the submission ID assigned by the client.
	ID string `json:"id"`

	SubmittedAt time.Time `json:"submitted_at"`
	RecordedAt  time.Time `json:"recorded_at"`

	DocumentType   string `json:"document_type"`
	DocumentFormat string `json:"document_format"`

	// DocumentHash is the hex SHA-256 of the serialized document.
	DocumentHash string `json:"document_hash,omitempty"`

	// Wait is the time spent waiting for admission.
	Wait time.Duration `json:"wait"`

	// Latency is the round trip of the HTTP call, zero if none was made.
	Latency time.Duration `json:"latency"`

	StatusCode int `json:"status_code,omitempty"`

	// Outcome is the submission result class, e.g. "success" or "rejected".
	Outcome string `json:"outcome"`

	// Response is the (possibly truncated) response body.
	Response string `json:"response,omitempty"`

	Error string `json:"error,omitempty"`
}

// Query selects journal entries. Zero values match everything.
type Query struct {
	// Since and Until bound SubmittedAt, both inclusive.
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`

	Outcome string `json:"outcome,omitempty"`

	// Limit caps the number of entries returned by Storage.Query.
	// 0 means no limit. Delete and Count ignore it.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "asc" (oldest first) or "desc" (newest first).
	// Default: "desc"
	SortOrder string `json:"sort_order,omitempty"`
}

// Ascending reports whether results are ordered oldest first.
func (q *Query) Ascending() bool {
	return q.SortOrder == SortAsc
}

// Matches reports whether e satisfies the filters of q.
// Pagination and ordering are not considered.
func (q *Query) Matches(e *Entry) bool {
	if q.Since != nil && e.SubmittedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && e.SubmittedAt.After(*q.Until) {
		return false
	}
	if q.Outcome != "" && e.Outcome != q.Outcome {
		return false
	}
	return true
}

// Storage persists journal entries.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store writes entry, replacing any entry with the same ID.
	Store(ctx context.Context, entry *Entry) error

	// Get returns the entry with id, or an error matching ErrNotFound.
	Get(ctx context.Context, id string) (*Entry, error)

	// Query returns entries matching query. It returns an empty slice if
	// nothing matches.
	Query(ctx context.Context, query *Query) ([]*Entry, error)

	// Count returns the number of entries matching query.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes entries matching query and returns how many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases the backend.
	Close() error
}

// Exporter writes entries in a serialized format.
type Exporter interface {
	Export(ctx context.Context, entries []*Entry, w io.Writer) error
}
