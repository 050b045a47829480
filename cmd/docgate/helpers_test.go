package main

import (
	"os"
	"path/filepath"
	"testing"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/submission"
)

// testConfig returns a defaulted config pointing at endpoint with a SQLite
// journal in a temp dir.
func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	dir := t.TempDir()
	cfg.Client.Endpoint = endpoint
	cfg.Journal.Enabled = true
	cfg.Journal.Backend = "sqlite"
	cfg.Journal.SQLite.Path = filepath.Join(dir, "journal.db")
	cfg.Inbox.Dir = filepath.Join(dir, "inbox")
	cfg.Inbox.DoneDir = filepath.Join(dir, "inbox", "done")
	cfg.Inbox.FailedDir = filepath.Join(dir, "inbox", "failed")
	return cfg
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resetSubmitFlags(t *testing.T) {
	t.Helper()
	submitFlags.document = ""
	submitFlags.signature = ""
	submitFlags.signatureText = ""
	submitFlags.format = string(submission.FormatManual)
	submitFlags.docType = submission.DocumentTypeIntroduceGoods
	submitFlags.endpoint = ""
	submitFlags.dryRun = false
	submitFlags.output = "text"
}
