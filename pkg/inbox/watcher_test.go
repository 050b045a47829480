package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/limits/ratelimit"
	"mercator-hq/docgate/pkg/submission"
)

// fakeSubmitter records requests and rejects documents containing "reject".
type fakeSubmitter struct {
	mu       sync.Mutex
	requests []submission.Request
}

func (f *fakeSubmitter) Do(ctx context.Context, req *submission.Request) (*submission.Receipt, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()

	raw, _ := req.Document.(json.RawMessage)
	if strings.Contains(string(raw), "reject") {
		return nil, &submission.StatusError{StatusCode: 400, Body: `{"error":"bad document"}`}
	}
	return &submission.Receipt{ID: "r", StatusCode: 200, Body: `{"value":"accepted"}`}, nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type countingObserver struct {
	mu      sync.Mutex
	results map[string]int
}

func (c *countingObserver) RecordInboxFile(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func (c *countingObserver) get(result string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[result]
}

func testConfig(t *testing.T) config.InboxConfig {
	dir := t.TempDir()
	return config.InboxConfig{
		Dir:       filepath.Join(dir, "in"),
		DoneDir:   filepath.Join(dir, "done"),
		FailedDir: filepath.Join(dir, "failed"),
		Workers:   2,
		Debounce:  20 * time.Millisecond,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writePair(t *testing.T, dir, name, document, signature string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, name+documentExt), document)
	writeFile(t, filepath.Join(dir, name+signatureExt), signature)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

// startWatcher runs w until the test ends and returns a stop function that
// cancels Run and waits for it.
func startWatcher(t *testing.T, w *Watcher) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Wait for the directories Run creates before writing into them.
	waitUntil(t, func() bool { return exists(w.config.DoneDir) && exists(w.config.FailedDir) }, "inbox directories")
	// fsnotify.Add happens right after; give it a moment.
	time.Sleep(20 * time.Millisecond)

	var once sync.Once
	var runErr error
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case runErr = <-errCh:
			case <-time.After(5 * time.Second):
				runErr = errors.New("Run did not return")
			}
		})
		return runErr
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(config.InboxConfig{}, &fakeSubmitter{}); err == nil {
		t.Error("New() without dir error = nil")
	}
	if _, err := New(config.InboxConfig{Dir: t.TempDir()}, nil); err == nil {
		t.Error("New() without submitter error = nil")
	}

	w, err := New(config.InboxConfig{Dir: "in"}, &fakeSubmitter{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.config.DoneDir != filepath.Join("in", "done") || w.config.FailedDir != filepath.Join("in", "failed") {
		t.Errorf("default dirs = %q, %q", w.config.DoneDir, w.config.FailedDir)
	}
	if w.config.Workers != config.DefaultInboxWorkers || w.config.Debounce != config.DefaultInboxDebounce {
		t.Errorf("defaults not applied: %+v", w.config)
	}
}

func TestPairName(t *testing.T) {
	tests := []struct {
		path string
		op   fsnotify.Op
		want string
		ok   bool
	}{
		{"/in/order.json", fsnotify.Create, "order", true},
		{"/in/order.sig", fsnotify.Write, "order", true},
		{"/in/order.v2.json", fsnotify.Create, "order.v2", true},
		{"/in/order.json", fsnotify.Remove, "", false},
		{"/in/order.json", fsnotify.Rename, "", false},
		{"/in/order.response", fsnotify.Create, "", false},
		{"/in/.order.json.swp", fsnotify.Create, "", false},
		{"/in/.order.json", fsnotify.Create, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.op.String(), func(t *testing.T) {
			got, ok := pairName(fsnotify.Event{Name: tt.path, Op: tt.op})
			if got != tt.want || ok != tt.ok {
				t.Errorf("pairName() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWatcher_SubmitsNewPair(t *testing.T) {
	cfg := testConfig(t)
	sub := &fakeSubmitter{}
	obs := &countingObserver{}
	w, err := New(cfg, sub,
		WithFileObserver(obs),
		WithRequestTemplate(submission.Request{Format: submission.FormatXML, Type: "LP_SHIP_GOODS"}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	writePair(t, cfg.Dir, "order-1", `{"qty":3}`, "  c2lnbmF0dXJl\n")

	waitUntil(t, func() bool { return exists(filepath.Join(cfg.DoneDir, "order-1.response")) }, "response file")
	waitUntil(t, func() bool { return obs.get(ResultDone) == 1 }, "observer")

	for _, name := range []string{"order-1.json", "order-1.sig"} {
		if !exists(filepath.Join(cfg.DoneDir, name)) {
			t.Errorf("%s not moved to done dir", name)
		}
		if exists(filepath.Join(cfg.Dir, name)) {
			t.Errorf("%s still in inbox", name)
		}
	}

	body, _ := os.ReadFile(filepath.Join(cfg.DoneDir, "order-1.response"))
	if string(body) != `{"value":"accepted"}` {
		t.Errorf("response file = %q", body)
	}

	if sub.count() != 1 {
		t.Fatalf("submissions = %d, want 1", sub.count())
	}
	req := sub.requests[0]
	if req.Signature != "c2lnbmF0dXJl" {
		t.Errorf("Signature = %q, want trimmed", req.Signature)
	}
	if raw, _ := req.Document.(json.RawMessage); string(raw) != `{"qty":3}` {
		t.Errorf("Document = %v", req.Document)
	}
	if req.Format != submission.FormatXML || req.Type != "LP_SHIP_GOODS" {
		t.Errorf("template not applied: %+v", req)
	}
}

func TestWatcher_FailedPair(t *testing.T) {
	cfg := testConfig(t)
	obs := &countingObserver{}
	w, _ := New(cfg, &fakeSubmitter{}, WithFileObserver(obs))
	startWatcher(t, w)

	writePair(t, cfg.Dir, "bad", `{"reject":true}`, "sig")

	errFile := filepath.Join(cfg.FailedDir, "bad.error")
	waitUntil(t, func() bool { return exists(errFile) }, "error file")
	waitUntil(t, func() bool { return obs.get(ResultFailed) == 1 }, "observer")

	content, _ := os.ReadFile(errFile)
	if !strings.Contains(string(content), "status 400") {
		t.Errorf("error file = %q, want status 400", content)
	}
	if !exists(filepath.Join(cfg.FailedDir, "bad.json")) || !exists(filepath.Join(cfg.FailedDir, "bad.sig")) {
		t.Error("pair not moved to failed dir")
	}
}

func TestWatcher_ExistingPairsAtStartup(t *testing.T) {
	cfg := testConfig(t)
	writePair(t, cfg.Dir, "a", `{}`, "s")
	writePair(t, cfg.Dir, "b", `{}`, "s")
	writeFile(t, filepath.Join(cfg.Dir, "orphan.json"), `{}`)
	writeFile(t, filepath.Join(cfg.Dir, ".hidden.json"), `{}`)
	writeFile(t, filepath.Join(cfg.Dir, ".hidden.sig"), "s")

	sub := &fakeSubmitter{}
	w, _ := New(cfg, sub)

	names, err := w.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(names) != 2 {
		t.Errorf("Scan() = %v, want [a b]", names)
	}

	startWatcher(t, w)

	waitUntil(t, func() bool {
		return exists(filepath.Join(cfg.DoneDir, "a.response")) && exists(filepath.Join(cfg.DoneDir, "b.response"))
	}, "existing pairs processed")

	if !exists(filepath.Join(cfg.Dir, "orphan.json")) {
		t.Error("incomplete pair was moved")
	}
	if sub.count() != 2 {
		t.Errorf("submissions = %d, want 2", sub.count())
	}
}

func TestWatcher_WaitsForSignature(t *testing.T) {
	cfg := testConfig(t)
	sub := &fakeSubmitter{}
	w, _ := New(cfg, sub)
	startWatcher(t, w)

	writeFile(t, filepath.Join(cfg.Dir, "late.json"), `{"n":1}`)
	time.Sleep(100 * time.Millisecond)
	if sub.count() != 0 {
		t.Fatalf("submitted without signature")
	}

	writeFile(t, filepath.Join(cfg.Dir, "late.sig"), "sig")
	waitUntil(t, func() bool { return exists(filepath.Join(cfg.DoneDir, "late.response")) }, "pair processed")
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	cfg := testConfig(t)
	cfg.Debounce = 100 * time.Millisecond
	sub := &fakeSubmitter{}
	w, _ := New(cfg, sub)
	startWatcher(t, w)

	writeFile(t, filepath.Join(cfg.Dir, "busy.sig"), "sig")
	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(cfg.Dir, "busy.json"), `{"rev":`+string(rune('0'+i))+`}`)
		time.Sleep(10 * time.Millisecond)
	}

	waitUntil(t, func() bool { return exists(filepath.Join(cfg.DoneDir, "busy.response")) }, "pair processed")
	time.Sleep(150 * time.Millisecond)

	if sub.count() != 1 {
		t.Fatalf("submissions = %d, want 1", sub.count())
	}
	if raw, _ := sub.requests[0].Document.(json.RawMessage); string(raw) != `{"rev":4}` {
		t.Errorf("submitted %s, want the final revision", raw)
	}
}

func TestWatcher_RunTwice(t *testing.T) {
	cfg := testConfig(t)
	w, _ := New(cfg, &fakeSubmitter{})
	startWatcher(t, w)

	if err := w.Run(context.Background()); err == nil {
		t.Error("second Run() error = nil, want already running")
	}
}

// manualTicker lets the test decide when the gate window rolls over.
type manualTicker struct {
	c chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               {}

func TestWatcher_SharedGate(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	ticker := &manualTicker{c: make(chan time.Time)}
	gate, err := ratelimit.New(time.Minute, 2, ratelimit.WithTickerFunc(func(time.Duration) ratelimit.Ticker { return ticker }))
	if err != nil {
		t.Fatalf("ratelimit.New() error = %v", err)
	}
	defer gate.Close()

	client, err := submission.New(submission.Config{Endpoint: srv.URL}, gate)
	if err != nil {
		t.Fatalf("submission.New() error = %v", err)
	}

	cfg := testConfig(t)
	cfg.Workers = 5
	for _, name := range []string{"p1", "p2", "p3", "p4", "p5"} {
		writePair(t, cfg.Dir, name, `{"doc":"`+name+`"}`, "sig")
	}

	w, _ := New(cfg, client)
	stop := startWatcher(t, w)

	waitUntil(t, func() bool { return hits.Load() == 2 && gate.Waiting() == 3 }, "first window admitted")

	ticker.c <- time.Now()
	waitUntil(t, func() bool { return hits.Load() == 4 && gate.Waiting() == 1 }, "second window admitted")

	ticker.c <- time.Now()
	waitUntil(t, func() bool { return hits.Load() == 5 }, "third window admitted")

	if err := stop(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	entries, _ := os.ReadDir(cfg.DoneDir)
	if len(entries) != 15 {
		t.Errorf("done dir has %d files, want 15", len(entries))
	}
}
