// Package recorder writes journal entries in the background.
//
// Recorder implements submission.Observer: register it on the client with
// submission.WithObserver and every attempt is turned into a journal.Entry
// and queued. A single worker drains the queue into the configured storage,
// so submissions never wait on the journal.
//
// When the queue is full the entry is dropped and counted rather than
// blocking the submitting goroutine. Close stops intake and writes out
// everything already queued.
//
//	rec := recorder.New(store, &recorder.Config{AsyncBuffer: 1000})
//	defer rec.Close()
//
//	client, err := submission.New(cfg, gate, submission.WithObserver(rec))
package recorder
