package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/docgate/pkg/journal"
)

// JSONExporter exports journal entries to JSON.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes entries as a JSON array followed by a newline.
func (e *JSONExporter) Export(ctx context.Context, entries []*journal.Entry, w io.Writer) error {
	if entries == nil {
		entries = []*journal.Entry{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(entries); err != nil {
		return journal.NewExportError("json", len(entries), err)
	}
	return nil
}
