package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/docgate/pkg/cli"
	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/journal"
	"mercator-hq/docgate/pkg/journal/storage"
)

func resetJournalFlags() {
	journalFlags.since = ""
	journalFlags.until = ""
	journalFlags.outcome = ""
	journalFlags.limit = journal.DefaultLimit
	journalFlags.offset = 0
	journalFlags.asc = false
	journalFlags.output = "text"
	journalFlags.file = ""
}

// seedJournal stores one entry per age, alternating success and rejected.
func seedJournal(t *testing.T, cfg *config.Config, ages ...time.Duration) {
	t.Helper()
	store, err := storage.Open(context.Background(), &cfg.Journal)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer store.Close()

	now := time.Now()
	for i, age := range ages {
		outcome := "success"
		if i%2 == 1 {
			outcome = "rejected"
		}
		entry := &journal.Entry{
			ID:             fmt.Sprintf("sub-%d", i),
			SubmittedAt:    now.Add(-age),
			RecordedAt:     now.Add(-age),
			DocumentType:   "LP_INTRODUCE_GOODS",
			DocumentFormat: "MANUAL",
			Outcome:        outcome,
		}
		if err := store.Store(context.Background(), entry); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
}

func TestJournalList(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	seedJournal(t, cfg, time.Minute, 2*time.Hour, 3*time.Hour, 48*time.Hour)

	tests := []struct {
		name    string
		setup   func()
		wantIDs []string
	}{
		{
			name:    "all newest first",
			setup:   func() {},
			wantIDs: []string{"sub-0", "sub-1", "sub-2", "sub-3"},
		},
		{
			name:    "since duration",
			setup:   func() { journalFlags.since = "24h" },
			wantIDs: []string{"sub-0", "sub-1", "sub-2"},
		},
		{
			name:    "outcome filter",
			setup:   func() { journalFlags.outcome = "rejected" },
			wantIDs: []string{"sub-1", "sub-3"},
		},
		{
			name: "ascending with limit",
			setup: func() {
				journalFlags.asc = true
				journalFlags.limit = 2
			},
			wantIDs: []string{"sub-3", "sub-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetJournalFlags()
			journalFlags.output = "json"
			tt.setup()

			var out bytes.Buffer
			if err := runJournalList(context.Background(), cfg, &out); err != nil {
				t.Fatalf("runJournalList() error = %v", err)
			}

			var entries []journal.Entry
			if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
				t.Fatalf("output: %v\n%s", err, out.String())
			}
			var ids []string
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestJournalList_File(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	seedJournal(t, cfg, time.Minute, time.Hour)

	resetJournalFlags()
	journalFlags.output = "csv"
	journalFlags.file = filepath.Join(t.TempDir(), "export.csv")

	var out bytes.Buffer
	if err := runJournalList(context.Background(), cfg, &out); err != nil {
		t.Fatalf("runJournalList() error = %v", err)
	}
	if !strings.Contains(out.String(), "Wrote 2 entries") {
		t.Errorf("output = %q", out.String())
	}

	data, err := os.ReadFile(journalFlags.file)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("csv has %d lines, want header + 2:\n%s", lines, data)
	}
}

func TestJournalList_InvalidFlags(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	tests := []struct {
		name  string
		setup func()
	}{
		{"bad outcome", func() { journalFlags.outcome = "maybe" }},
		{"bad since", func() { journalFlags.since = "yesterday" }},
		{"since after until", func() { journalFlags.since = "1h"; journalFlags.until = "2h" }},
		{"bad output", func() { journalFlags.output = "xml" }},
		{"limit too large", func() { journalFlags.limit = journal.MaxLimit + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetJournalFlags()
			tt.setup()

			err := runJournalList(context.Background(), cfg, &bytes.Buffer{})
			if cli.ExitCode(err) != cli.ExitConfig {
				t.Errorf("error = %v, want config error", err)
			}
		})
	}
}

func TestJournal_MemoryBackendRejected(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Journal.Backend = "memory"
	resetJournalFlags()

	if err := runJournalList(context.Background(), cfg, &bytes.Buffer{}); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("error = %v, want config error", err)
	}
}

func TestJournalPrune(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	seedJournal(t, cfg, time.Hour, 2*24*time.Hour, 10*24*time.Hour, 20*24*time.Hour)
	cfg.Journal.Retention.Days = 7
	cfg.Journal.Retention.MaxRecords = 1

	var out bytes.Buffer
	if err := runJournalPrune(context.Background(), cfg, &out); err != nil {
		t.Fatalf("runJournalPrune() error = %v", err)
	}
	if !strings.Contains(out.String(), "Pruned 3 entries (2 by age, 1 by count)") {
		t.Errorf("output = %q", out.String())
	}

	store, err := storage.Open(context.Background(), &cfg.Journal)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if n, _ := store.Count(context.Background(), &journal.Query{}); n != 1 {
		t.Errorf("remaining = %d, want 1", n)
	}
}

func TestParseTimeFlag(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		value   string
		want    *time.Time
		wantErr bool
	}{
		{value: "", want: nil},
		{value: "2026-03-01T00:00:00Z", want: ptr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))},
		{value: "90m", want: ptr(now.Add(-90 * time.Minute))},
		{value: "-1h", wantErr: true},
		{value: "last week", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseTimeFlag("since", tt.value, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %v, want nil", got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
