// Package logging configures structured logging for docgate.
//
// The package builds a log/slog handler from configuration and installs it
// as the process default, so components keep logging through
// slog.Default().With("component", ...). On top of the stock JSON and text
// handlers it adds:
//   - Redaction of credentials (signatures, tokens, Authorization headers)
//   - Context fields (submission_id, document, request_id) and the current
//     trace and span IDs on every record logged with a context
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithSubmissionID(ctx, id)
//	logger.InfoContext(ctx, "submission accepted", "status", 200)
package logging
