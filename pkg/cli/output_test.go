package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/docgate/pkg/journal"
)

func testEntries() []*journal.Entry {
	at := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	return []*journal.Entry{
		{
			ID:             "sub-1",
			SubmittedAt:    at,
			RecordedAt:     at.Add(time.Second),
			DocumentType:   "LP_INTRODUCE_GOODS",
			DocumentFormat: "MANUAL",
			Wait:           15 * time.Millisecond,
			Latency:        120 * time.Millisecond,
			StatusCode:     200,
			Outcome:        "success",
			Response:       `{"value":"ok"}`,
		},
		{
			ID:             "sub-2",
			SubmittedAt:    at.Add(time.Minute),
			RecordedAt:     at.Add(time.Minute),
			DocumentType:   "LP_INTRODUCE_GOODS",
			DocumentFormat: "MANUAL",
			Outcome:        "transport_error",
			Error:          "connection refused",
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"junit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if tt.wantErr && ExitCode(err) != ExitConfig {
				t.Errorf("format error should be a config error, got %T", err)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]string{"body": "<ok>"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), "<ok>") {
		t.Errorf("HTML escaped output: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Errorf("output not indented: %s", buf.String())
	}
}

func TestWriteEntries_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntries(context.Background(), &buf, FormatText, testEntries()); err != nil {
		t.Fatalf("WriteEntries() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"SUBMITTED", "OUTCOME", "sub-1", "success", "200", "transport_error", "2 entries"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteEntries_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntries(context.Background(), &buf, FormatText, nil); err != nil {
		t.Fatalf("WriteEntries() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No journal entries found") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteEntries_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntries(context.Background(), &buf, FormatJSON, testEntries()); err != nil {
		t.Fatalf("WriteEntries() error = %v", err)
	}

	var decoded []journal.Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ID != "sub-1" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteEntries_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntries(context.Background(), &buf, FormatCSV, testEntries()); err != nil {
		t.Fatalf("WriteEntries() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2", len(records))
	}
	if records[0][0] != "id" || records[1][0] != "sub-1" {
		t.Errorf("records = %v", records)
	}
}
