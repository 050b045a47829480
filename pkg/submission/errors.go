package submission

import (
	"errors"
	"fmt"
)

// ErrSubmissionFailed matches every error returned by Submit and Do.
var ErrSubmissionFailed = errors.New("submission failed")

// ValidationError reports a request that was rejected before encoding.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("submission failed: invalid %s: %s", e.Field, e.Message)
}

// Is matches ErrSubmissionFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// EncodeError reports a serialization failure. Stage is "document" or
// "envelope".
type EncodeError struct {
	Stage string
	Cause error
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("submission failed: encode %s: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// Is matches ErrSubmissionFailed.
func (e *EncodeError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// AdmissionError reports that no permit was obtained, because the caller's
// context ended or the gate was closed.
type AdmissionError struct {
	Cause error
}

// Error implements the error interface.
func (e *AdmissionError) Error() string {
	return fmt.Sprintf("submission failed: admission: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *AdmissionError) Unwrap() error {
	return e.Cause
}

// Is matches ErrSubmissionFailed.
func (e *AdmissionError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// TransportError reports an I/O failure while sending the request or
// reading the response.
type TransportError struct {
	Endpoint string
	Cause    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("submission failed: POST %s: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is matches ErrSubmissionFailed.
func (e *TransportError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// StatusError reports a response with a status other than 200.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("submission failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("submission failed: status %d: %s", e.StatusCode, truncate(e.Body, 512))
}

// Is matches ErrSubmissionFailed.
func (e *StatusError) Is(target error) bool {
	return target == ErrSubmissionFailed
}

// ConfigError reports an invalid client configuration.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("submission client config: %s: %s", e.Field, e.Message)
}

// Classify maps an error returned by Do to its Result.
func Classify(err error) Result {
	if err == nil {
		return ResultSuccess
	}

	var (
		validationErr *ValidationError
		encodeErr     *EncodeError
		admissionErr  *AdmissionError
		transportErr  *TransportError
		statusErr     *StatusError
	)
	switch {
	case errors.As(err, &validationErr):
		return ResultInvalid
	case errors.As(err, &encodeErr):
		return ResultEncode
	case errors.As(err, &admissionErr):
		return ResultAdmission
	case errors.As(err, &transportErr):
		return ResultTransport
	case errors.As(err, &statusErr):
		return ResultRejected
	default:
		return ResultTransport
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
