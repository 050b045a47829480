package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mercator-hq/docgate/pkg/journal"
)

// CSVExporter exports journal entries to CSV.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header is the CSV column order.
var Header = []string{
	"id", "submitted_at", "recorded_at",
	"document_type", "document_format", "document_hash",
	"wait_ms", "latency_ms",
	"status_code", "outcome", "response", "error",
}

// Export writes one row per entry.
func (e *CSVExporter) Export(ctx context.Context, entries []*journal.Entry, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return journal.NewExportError("csv", len(entries), err)
		}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(row(entry)); err != nil {
			return journal.NewExportError("csv", len(entries), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return journal.NewExportError("csv", len(entries), err)
	}
	return nil
}

func row(entry *journal.Entry) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	status := ""
	if entry.StatusCode != 0 {
		status = strconv.Itoa(entry.StatusCode)
	}

	return []string{
		entry.ID,
		formatTime(entry.SubmittedAt),
		formatTime(entry.RecordedAt),
		entry.DocumentType,
		entry.DocumentFormat,
		entry.DocumentHash,
		strconv.FormatInt(entry.Wait.Milliseconds(), 10),
		strconv.FormatInt(entry.Latency.Milliseconds(), 10),
		status,
		entry.Outcome,
		entry.Response,
		entry.Error,
	}
}
