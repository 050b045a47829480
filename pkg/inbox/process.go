package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/docgate/pkg/submission"
	"mercator-hq/docgate/pkg/telemetry/logging"
)

// Results reported to FileObserver.
const (
	ResultDone   = "done"
	ResultFailed = "failed"
)

// process submits the pair name and files it under done or failed.
func (w *Watcher) process(ctx context.Context, name string) {
	ctx = logging.WithDocument(ctx, name)
	ctx, span := w.tracer.Start(ctx, "inbox.process",
		trace.WithAttributes(attribute.String("inbox.document", name)),
	)
	defer span.End()

	docPath := filepath.Join(w.config.Dir, name+documentExt)
	sigPath := filepath.Join(w.config.Dir, name+signatureExt)

	document, err := os.ReadFile(docPath)
	if err != nil {
		// The pair was removed or renamed after it was queued.
		w.logger.WarnContext(ctx, "inbox document unreadable, skipping", "error", err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	signature, err := os.ReadFile(sigPath)
	if err != nil {
		w.logger.WarnContext(ctx, "inbox signature unreadable, skipping", "error", err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	req := w.template
	req.Document = json.RawMessage(document)
	req.Signature = strings.TrimSpace(string(signature))

	receipt, err := w.submitter.Do(ctx, &req)

	result := ResultDone
	if err != nil {
		result = ResultFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("inbox.result", result))

	var fileErr error
	if err == nil {
		fileErr = w.file(name, w.config.DoneDir, responseExt, receipt.Body)
		w.logger.InfoContext(ctx, "inbox document submitted",
			"status", receipt.StatusCode,
			"admission_wait", receipt.Wait,
			"latency", receipt.Latency,
		)
	} else {
		fileErr = w.file(name, w.config.FailedDir, errorExt, err.Error()+"\n")
		w.logger.ErrorContext(ctx, "inbox document failed",
			"result", string(submission.Classify(err)),
			"error", err,
		)
	}
	if fileErr != nil {
		w.logger.ErrorContext(ctx, "failed to file inbox document", "error", fileErr)
	}

	for _, o := range w.observers {
		o.RecordInboxFile(result)
	}
}

// file moves both files of the pair into dir and writes the sidecar
// <name><ext> with content.
func (w *Watcher) file(name, dir, ext, content string) error {
	var errs []error
	if err := os.WriteFile(filepath.Join(dir, name+ext), []byte(content), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write %s: %w", name+ext, err))
	}
	for _, e := range []string{documentExt, signatureExt} {
		from := filepath.Join(w.config.Dir, name+e)
		to := filepath.Join(dir, name+e)
		if err := os.Rename(from, to); err != nil {
			errs = append(errs, fmt.Errorf("move %s: %w", name+e, err))
		}
	}
	return errors.Join(errs...)
}
