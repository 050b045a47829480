package submission

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the CRPT document creation URL.
	DefaultEndpoint = "https://ismp.crpt.ru/api/v3/lk/documents/create"

	// DocumentTypeIntroduceGoods is the type tag for goods introduction.
	DocumentTypeIntroduceGoods = "LP_INTRODUCE_GOODS"
)

// DocumentFormat is the encoding of the product document.
type DocumentFormat string

const (
	FormatManual DocumentFormat = "MANUAL"
	FormatXML    DocumentFormat = "XML"
	FormatCSV    DocumentFormat = "CSV"
)

// ParseDocumentFormat parses a format name, case-insensitively.
func ParseDocumentFormat(s string) (DocumentFormat, error) {
	switch f := DocumentFormat(strings.ToUpper(strings.TrimSpace(s))); f {
	case FormatManual, FormatXML, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown document format %q (must be MANUAL, XML or CSV)", s)
	}
}

// Envelope is the request body accepted by the document creation endpoint.
// Field order is part of the wire contract.
type Envelope struct {
	DocumentFormat  DocumentFormat `json:"document_format"`
	ProductDocument string         `json:"product_document"`
	Signature       string         `json:"signature"`
	Type            string         `json:"type"`
}

// Request describes one submission.
type Request struct {
	// Document is serialized to JSON text and carried as product_document.
	// A json.RawMessage is used verbatim after validation.
	Document any

	// Signature is the detached signature of the document.
	Signature string

	// Format defaults to FormatManual.
	Format DocumentFormat

	// Type defaults to DocumentTypeIntroduceGoods.
	Type string
}

// Receipt is the result of a successful submission.
type Receipt struct {
	ID         string
	StatusCode int
	Body       string

	// Wait is the time spent waiting for an admission permit.
	Wait time.Duration

	// Latency is the duration of the HTTP exchange.
	Latency time.Duration
}

// Result classifies a submission outcome.
type Result string

const (
	ResultSuccess   Result = "success"
	ResultInvalid   Result = "invalid"
	ResultEncode    Result = "encode_error"
	ResultAdmission Result = "admission_error"
	ResultTransport Result = "transport_error"
	ResultRejected  Result = "rejected"
)

// Outcome is reported to observers after every submission attempt.
type Outcome struct {
	ID           string
	DocumentType string
	Format       DocumentFormat

	// DocumentHash is the hex SHA-256 of the serialized document, empty when
	// encoding failed.
	DocumentHash string

	Started    time.Time
	Wait       time.Duration
	Latency    time.Duration
	StatusCode int
	Body       string
	Err        error
}

// Result returns the outcome class.
func (o *Outcome) Result() Result {
	return Classify(o.Err)
}

// Observer receives submission outcomes. Implementations must not block.
type Observer interface {
	ObserveSubmission(ctx context.Context, outcome *Outcome)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, outcome *Outcome)

// ObserveSubmission calls f.
func (f ObserverFunc) ObserveSubmission(ctx context.Context, outcome *Outcome) {
	f(ctx, outcome)
}

// Admitter hands out admission permits. *ratelimit.Gate satisfies it.
type Admitter interface {
	AcquireContext(ctx context.Context) error
}
