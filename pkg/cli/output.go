package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"mercator-hq/docgate/pkg/journal"
	"mercator-hq/docgate/pkg/journal/export"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is a human readable table (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output. Only journal listings support it.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat parses a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", NewConfigError("output", fmt.Sprintf("unsupported format %q (valid: text, json, csv)", s))
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// WriteEntries renders journal entries in format.
func WriteEntries(ctx context.Context, w io.Writer, format OutputFormat, entries []*journal.Entry) error {
	switch format {
	case FormatJSON:
		return export.NewJSONExporter(true).Export(ctx, entries, w)
	case FormatCSV:
		return export.NewCSVExporter(true).Export(ctx, entries, w)
	default:
		return writeEntryTable(w, entries)
	}
}

func writeEntryTable(w io.Writer, entries []*journal.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No journal entries found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMITTED\tOUTCOME\tSTATUS\tTYPE\tWAIT\tLATENCY\tID")
	for _, e := range entries {
		status := "-"
		if e.StatusCode != 0 {
			status = fmt.Sprint(e.StatusCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.SubmittedAt.Local().Format(time.DateTime),
			e.Outcome,
			status,
			e.DocumentType,
			e.Wait.Round(time.Millisecond),
			e.Latency.Round(time.Millisecond),
			e.ID,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d entries\n", len(entries))
	return err
}
