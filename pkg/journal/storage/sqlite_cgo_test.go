//go:build cgo

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/journal"
)

func TestSQLiteStorage_CgoDriver(t *testing.T) {
	s, err := NewSQLiteStorage(config.SQLiteConfig{
		Path:   filepath.Join(t.TempDir(), "journal.db"),
		Driver: DriverSQLite3,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer s.Close()

	seed(t, s, 6)

	got, err := s.Query(context.Background(), &journal.Query{Outcome: "rejected", SortOrder: journal.SortAsc})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if want := []string{"entry-00", "entry-03"}; !equalIDs(ids(got), want) {
		t.Errorf("Query() = %v, want %v", ids(got), want)
	}
}

func TestSQLiteStorage_CgoBusyTimeoutOnEveryConnection(t *testing.T) {
	s, err := NewSQLiteStorage(config.SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "journal.db"),
		Driver:       DriverSQLite3,
		BusyTimeout:  1500 * time.Millisecond,
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer s.Close()

	for i, ms := range busyTimeouts(t, s, 3) {
		if ms != 1500 {
			t.Errorf("conn %d busy_timeout = %d, want 1500", i, ms)
		}
	}
}
