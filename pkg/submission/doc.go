// Package submission sends signed documents to the CRPT document creation
// endpoint behind an admission gate.
//
// A submission wraps a caller's document and signature into the fixed
// Envelope, waits for a permit from the gate and performs exactly one HTTP
// POST. The raw response body is returned on HTTP 200; every other outcome
// is an error that matches ErrSubmissionFailed under errors.Is. Nothing is
// retried.
//
// Basic usage:
//
//	gate, _ := ratelimit.New(time.Second, 10)
//	defer gate.Close()
//
//	client, err := submission.New(submission.Config{Token: token}, gate)
//	if err != nil {
//	    return err
//	}
//
//	body, err := client.Submit(ctx, document, signature)
//
// Observers registered with WithObserver see every attempt, including the
// ones that never reached the network, which is how metrics and the journal
// are fed.
package submission
