package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/submission"
)

const (
	documentExt  = ".json"
	signatureExt = ".sig"
	responseExt  = ".response"
	errorExt     = ".error"

	tracerName = "mercator-hq/docgate/inbox"
)

// Submitter performs one submission. *submission.Client satisfies it.
type Submitter interface {
	Do(ctx context.Context, req *submission.Request) (*submission.Receipt, error)
}

// FileObserver is told the result ("done" or "failed") of every processed
// pair. *metrics.Collector satisfies it.
type FileObserver interface {
	RecordInboxFile(result string)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithFileObserver registers an observer for processed pairs.
func WithFileObserver(o FileObserver) Option {
	return func(w *Watcher) {
		if o != nil {
			w.observers = append(w.observers, o)
		}
	}
}

// WithRequestTemplate sets the format and document type used for every
// submission. Document and Signature in req are ignored.
func WithRequestTemplate(req submission.Request) Option {
	return func(w *Watcher) {
		w.template = req
	}
}

// Watcher watches an inbox directory and submits complete pairs.
type Watcher struct {
	config    config.InboxConfig
	submitter Submitter
	template  submission.Request
	observers []FileObserver
	logger    *slog.Logger
	tracer    trace.Tracer

	queue chan string

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]bool
	running bool
	stopCh  chan struct{}
}

// New creates a watcher for cfg.Dir. Nothing is watched until Run.
func New(cfg config.InboxConfig, submitter Submitter, opts ...Option) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("inbox directory is required")
	}
	if submitter == nil {
		return nil, errors.New("submitter is required")
	}
	if cfg.DoneDir == "" {
		cfg.DoneDir = filepath.Join(cfg.Dir, "done")
	}
	if cfg.FailedDir == "" {
		cfg.FailedDir = filepath.Join(cfg.Dir, "failed")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = config.DefaultInboxWorkers
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = config.DefaultInboxDebounce
	}

	w := &Watcher{
		config:    cfg,
		submitter: submitter,
		logger:    slog.Default().With("component", "inbox.watcher"),
		tracer:    otel.Tracer(tracerName),
		queue:     make(chan string, cfg.Workers*4),
		timers:    make(map[string]*time.Timer),
		pending:   make(map[string]bool),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the inbox until ctx is done. It returns after in-flight
// submissions have finished.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("inbox watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range []string{w.config.Dir, w.config.DoneDir, w.config.FailedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.config.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.config.Dir, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < w.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.worker(ctx)
		}()
	}

	w.logger.Info("inbox watcher started",
		"dir", w.config.Dir,
		"done_dir", w.config.DoneDir,
		"failed_dir", w.config.FailedDir,
		"workers", w.config.Workers,
		"debounce_ms", w.config.Debounce.Milliseconds(),
	)

	names, err := w.Scan()
	if err != nil {
		w.logger.Error("initial inbox scan failed", "error", err)
	}
	if len(names) > 0 {
		w.logger.Info("found existing inbox pairs", "count", len(names))
		go func() {
			for _, name := range names {
				w.enqueue(name)
			}
		}()
	}

	err = w.loop(ctx, fsw)

	w.shutdown()
	wg.Wait()

	w.logger.Info("inbox watcher stopped")
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			name, ok := pairName(event)
			if !ok {
				continue
			}
			w.logger.Debug("inbox event",
				"path", event.Name,
				"op", event.Op.String(),
			)
			w.trigger(name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("inbox watcher error", "error", err)
		}
	}
}

// pairName returns the base name of a document or signature file event.
func pairName(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return "", false
	}
	ext := filepath.Ext(base)
	if ext != documentExt && ext != signatureExt {
		return "", false
	}
	return strings.TrimSuffix(base, ext), true
}

// trigger (re)starts the quiet-period timer for name.
func (w *Watcher) trigger(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running || w.pending[name] {
		return
	}
	if t, ok := w.timers[name]; ok {
		t.Reset(w.config.Debounce)
		return
	}
	w.timers[name] = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, name)
		w.mu.Unlock()

		if w.complete(name) {
			w.enqueue(name)
		}
	})
}

// enqueue hands name to the workers unless it is already queued.
func (w *Watcher) enqueue(name string) {
	w.mu.Lock()
	if !w.running || w.pending[name] {
		w.mu.Unlock()
		return
	}
	w.pending[name] = true
	w.mu.Unlock()

	select {
	case w.queue <- name:
	case <-w.stopCh:
	}
}

func (w *Watcher) done(name string) {
	w.mu.Lock()
	delete(w.pending, name)
	w.mu.Unlock()
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.running = false
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
	close(w.stopCh)
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case name := <-w.queue:
			if ctx.Err() != nil {
				return
			}
			// A started submission runs to completion even if ctx ends.
			w.process(context.WithoutCancel(ctx), name)
			w.done(name)
		}
	}
}

// complete reports whether both files of the pair exist.
func (w *Watcher) complete(name string) bool {
	for _, ext := range []string{documentExt, signatureExt} {
		info, err := os.Stat(filepath.Join(w.config.Dir, name+ext))
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

// Scan returns the names of complete pairs currently in the inbox.
func (w *Watcher) Scan() ([]string, error) {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if filepath.Ext(e.Name()) != documentExt {
			continue
		}
		name := strings.TrimSuffix(e.Name(), documentExt)
		if w.complete(name) {
			names = append(names, name)
		}
	}
	return names, nil
}
