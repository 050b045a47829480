package export

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

func sampleEntries() []*journal.Entry {
	at := time.Date(2026, 7, 14, 8, 30, 0, 0, time.UTC)
	return []*journal.Entry{
		{
			ID:             "a1",
			SubmittedAt:    at,
			RecordedAt:     at.Add(time.Second),
			DocumentType:   "LP_INTRODUCE_GOODS",
			DocumentFormat: "MANUAL",
			Wait:           1500 * time.Millisecond,
			Latency:        42 * time.Millisecond,
			StatusCode:     200,
			Outcome:        "success",
			Response:       `{"value":"<ok>"}`,
		},
		{
			ID:             "b2",
			SubmittedAt:    at.Add(time.Minute),
			DocumentType:   "LP_INTRODUCE_GOODS",
			DocumentFormat: "CSV",
			Outcome:        "transport_error",
			Error:          "dial tcp: connection refused, retry later",
		},
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), sampleEntries(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if strings.Contains(buf.String(), `<`) {
		t.Error("Export() escaped HTML characters")
	}

	var got []journal.Entry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
	}
	if len(got) != 2 || got[0].ID != "a1" || got[1].Error == "" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestJSONExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(true).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("Export(nil) = %q, want []", got)
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), sampleEntries(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header = %v", records[0])
	}

	first := records[1]
	if first[0] != "a1" || first[1] != "2026-07-14T08:30:00Z" || first[6] != "1500" || first[7] != "42" || first[8] != "200" {
		t.Errorf("first row = %v", first)
	}

	second := records[2]
	if second[2] != "" || second[8] != "" {
		t.Errorf("zero recorded_at/status not blank: %v", second)
	}
	if second[11] != "dial tcp: connection refused, retry later" {
		t.Errorf("error column = %q", second[11])
	}
}

func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), sampleEntries()[:1], &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if strings.HasPrefix(buf.String(), "id,") {
		t.Error("header written with IncludeHeader=false")
	}
}

func TestExporters_ImplementInterface(t *testing.T) {
	var _ journal.Exporter = (*JSONExporter)(nil)
	var _ journal.Exporter = (*CSVExporter)(nil)
}
