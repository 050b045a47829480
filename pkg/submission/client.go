package submission

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/docgate/pkg/telemetry/logging"
	"mercator-hq/docgate/pkg/telemetry/tracing"
)

const tracerName = "mercator-hq/docgate/submission"

// Client submits documents through an admission gate.
//
// Client is safe for concurrent use. All callers sharing a Client share its
// gate, so the combined call rate stays within the gate's budget.
type Client struct {
	config    Config
	gate      Admitter
	http      *http.Client
	observers []Observer
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled HTTP client built from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver registers an observer. It may be given more than once.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer used for submission spans. By default the
// global tracer provider is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// New creates a client that takes one permit from gate per request.
func New(cfg Config, gate Admitter, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gate == nil {
		return nil, &ConfigError{Field: "gate", Message: "admission gate is required"}
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		config: cfg,
		gate:   gate,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: slog.Default().With("component", "submission.client"),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// Submit sends document with signature using the default format and type and
// returns the raw response body.
func (c *Client) Submit(ctx context.Context, document any, signature string) (string, error) {
	receipt, err := c.Do(ctx, &Request{Document: document, Signature: signature})
	if err != nil {
		return "", err
	}
	return receipt.Body, nil
}

// Do performs one submission.
//
// The document and envelope are encoded before a permit is requested, so an
// unencodable document never consumes admission budget. Once a permit is
// granted exactly one POST is made.
func (c *Client) Do(ctx context.Context, req *Request) (*Receipt, error) {
	outcome := &Outcome{
		ID:      uuid.NewString(),
		Started: time.Now(),
	}
	if req != nil {
		outcome.DocumentType = req.Type
		outcome.Format = req.Format
	}
	if outcome.DocumentType == "" {
		outcome.DocumentType = DocumentTypeIntroduceGoods
	}
	if outcome.Format == "" {
		outcome.Format = FormatManual
	}

	ctx = logging.WithSubmissionID(ctx, outcome.ID)
	ctx, span := c.tracer.Start(ctx, "submission.submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("submission.id", outcome.ID),
			attribute.String("document.type", outcome.DocumentType),
			attribute.String("document.format", string(outcome.Format)),
		),
	)
	defer span.End()

	receipt, err := c.do(ctx, req, outcome)
	outcome.Err = err

	span.SetAttributes(attribute.Int64("admission.wait_ms", outcome.Wait.Milliseconds()))
	if outcome.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", outcome.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	c.notify(ctx, outcome)

	return receipt, err
}

func (c *Client) do(ctx context.Context, req *Request, outcome *Outcome) (*Receipt, error) {
	if req == nil {
		return nil, &ValidationError{Field: "request", Message: "request is required"}
	}
	if req.Document == nil {
		return nil, &ValidationError{Field: "document", Message: "document is required"}
	}
	if req.Signature == "" {
		return nil, &ValidationError{Field: "signature", Message: "signature is required"}
	}
	format, err := ParseDocumentFormat(string(outcome.Format))
	if err != nil {
		return nil, &ValidationError{Field: "format", Message: err.Error()}
	}
	outcome.Format = format

	productDocument, err := encodeDocument(req.Document)
	if err != nil {
		return nil, &EncodeError{Stage: "document", Cause: err}
	}
	sum := sha256.Sum256(productDocument)
	outcome.DocumentHash = hex.EncodeToString(sum[:])

	body, err := encodeEnvelope(productDocument, req.Signature, outcome.Format, outcome.DocumentType)
	if err != nil {
		return nil, err
	}

	waitStart := time.Now()
	err = c.gate.AcquireContext(ctx)
	outcome.Wait = time.Since(waitStart)
	if err != nil {
		return nil, &AdmissionError{Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Endpoint: c.config.Endpoint, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	tracing.Inject(ctx, httpReq.Header)

	c.logger.DebugContext(ctx, "sending submission",
		"endpoint", c.config.Endpoint,
		"document_type", outcome.DocumentType,
		"admission_wait", outcome.Wait,
	)

	sendStart := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		outcome.Latency = time.Since(sendStart)
		return nil, &TransportError{Endpoint: c.config.Endpoint, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	outcome.Latency = time.Since(sendStart)
	outcome.StatusCode = resp.StatusCode
	if err != nil {
		return nil, &TransportError{Endpoint: c.config.Endpoint, Cause: err}
	}
	outcome.Body = string(respBody)

	c.logger.DebugContext(ctx, "submission response received",
		"status", resp.StatusCode,
		"latency", outcome.Latency,
	)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: outcome.Body}
	}

	return &Receipt{
		ID:         outcome.ID,
		StatusCode: resp.StatusCode,
		Body:       outcome.Body,
		Wait:       outcome.Wait,
		Latency:    outcome.Latency,
	}, nil
}

func (c *Client) notify(ctx context.Context, outcome *Outcome) {
	for _, o := range c.observers {
		o.ObserveSubmission(ctx, outcome)
	}
}
