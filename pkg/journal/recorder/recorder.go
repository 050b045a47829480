package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"mercator-hq/docgate/pkg/journal"
	"mercator-hq/docgate/pkg/submission"
)

var (
	// ErrQueueFull is returned by Record when the async buffer is full.
	ErrQueueFull = errors.New("journal queue full")

	// ErrClosed is returned by Record after Close.
	ErrClosed = errors.New("recorder closed")
)

// Config contains configuration for the recorder.
type Config struct {
	// AsyncBuffer is the queue capacity.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// MaxResponseBytes caps the response body kept per entry. 0 keeps none.
	// Default: 4096
	MaxResponseBytes int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:      1000,
		WriteTimeout:     5 * time.Second,
		MaxResponseBytes: 4096,
	}
}

// Recorder queues journal entries and writes them to storage.
type Recorder struct {
	storage journal.Storage
	config  *Config
	queue   chan *journal.Entry
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger

	// mu orders Record against Close so nothing is queued after the
	// worker's final drain.
	mu     sync.RWMutex
	closed bool

	recorded atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a recorder and starts its worker.
func New(storage journal.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		queue:   make(chan *journal.Entry, config.AsyncBuffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("journal recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
		"max_response_bytes", config.MaxResponseBytes,
	)

	return r
}

// ObserveSubmission implements submission.Observer. It never blocks.
func (r *Recorder) ObserveSubmission(ctx context.Context, outcome *submission.Outcome) {
	entry := NewEntry(outcome, r.config.MaxResponseBytes)
	if err := r.Record(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "journal entry dropped",
			"entry_id", entry.ID,
			"error", err,
		)
	}
}

// Record queues entry for writing. It returns a RecorderError wrapping
// ErrQueueFull or ErrClosed if the entry was dropped.
func (r *Recorder) Record(ctx context.Context, entry *journal.Entry) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return journal.NewRecorderError(entry.ID, ErrClosed)
	}

	select {
	case r.queue <- entry:
		return nil
	default:
		r.dropped.Add(1)
		return journal.NewRecorderError(entry.ID, ErrQueueFull)
	}
}

// Recorded returns the number of entries written to storage.
func (r *Recorder) Recorded() uint64 {
	return r.recorded.Load()
}

// Dropped returns the number of entries that never reached storage, either
// because the queue was full or closed or because the write failed.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Pending returns the number of queued entries.
func (r *Recorder) Pending() int {
	return len(r.queue)
}

// Close stops accepting entries, writes out the queue and waits for the
// worker. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()

	r.logger.Info("journal recorder shut down",
		"recorded", r.Recorded(),
		"dropped", r.Dropped(),
	)
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		case <-r.done:
			r.logger.Debug("draining journal queue", "pending_count", len(r.queue))
			for {
				select {
				case entry := <-r.queue:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry *journal.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, entry); err != nil {
		r.dropped.Add(1)
		r.logger.Error("failed to store journal entry",
			"entry_id", entry.ID,
			"error", err,
		)
		return
	}
	r.recorded.Add(1)

	duration := time.Since(start)
	r.logger.Debug("journal entry recorded",
		"entry_id", entry.ID,
		"outcome", entry.Outcome,
		"duration_ms", duration.Milliseconds(),
	)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow journal write",
			"entry_id", entry.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// NewEntry converts a submission outcome to a journal entry, keeping at most
// maxResponse bytes of the response body.
func NewEntry(outcome *submission.Outcome, maxResponse int) *journal.Entry {
	entry := &journal.Entry{
		ID:             outcome.ID,
		SubmittedAt:    outcome.Started,
		RecordedAt:     time.Now(),
		DocumentType:   outcome.DocumentType,
		DocumentFormat: string(outcome.Format),
		DocumentHash:   outcome.DocumentHash,
		Wait:           outcome.Wait,
		Latency:        outcome.Latency,
		StatusCode:     outcome.StatusCode,
		Outcome:        string(outcome.Result()),
		Response:       truncate(outcome.Body, maxResponse),
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = entry.RecordedAt
	}
	if outcome.Err != nil {
		entry.Error = outcome.Err.Error()
	}
	return entry
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
