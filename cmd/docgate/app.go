package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/journal"
	"mercator-hq/docgate/pkg/journal/recorder"
	"mercator-hq/docgate/pkg/journal/storage"
	"mercator-hq/docgate/pkg/limits/ratelimit"
	"mercator-hq/docgate/pkg/submission"
	"mercator-hq/docgate/pkg/telemetry/metrics"
	"mercator-hq/docgate/pkg/telemetry/tracing"
)

// tokenWarnWindow is how close to expiry the access token may get before a
// warning is logged.
const tokenWarnWindow = time.Hour

// app holds the components shared by submit and watch.
type app struct {
	gate      *ratelimit.Gate
	client    *submission.Client
	collector *metrics.Collector
	tracer    *tracing.Tracer
	store     journal.Storage
	recorder  *recorder.Recorder
}

// newApp wires the gate, journal, metrics and tracing into a submission
// client. The caller must call close.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	rt := &app{}
	defer func() {
		if err != nil {
			_ = rt.close(context.Background())
		}
	}()

	rt.tracer, err = tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	rt.gate, err = ratelimit.New(cfg.Gate.Period, cfg.Gate.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to create admission gate: %w", err)
	}

	rt.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	rt.collector.RegisterGate(rt.gate)

	opts := []submission.Option{submission.WithObserver(rt.collector)}

	if cfg.Journal.Enabled {
		rt.store, err = storage.Open(ctx, &cfg.Journal)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		rt.recorder = recorder.New(rt.store, &recorder.Config{
			AsyncBuffer:      cfg.Journal.AsyncBuffer,
			MaxResponseBytes: cfg.Journal.MaxResponseBytes,
		})
		rt.collector.RegisterJournal(rt.recorder)
		opts = append(opts, submission.WithObserver(rt.recorder))
	}

	rt.client, err = submission.New(clientConfig(cfg), rt.gate, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission client: %w", err)
	}

	checkToken(cfg.Client.Token, time.Now())

	return rt, nil
}

// close releases the components in reverse order of construction. The gate
// is closed before the recorder so no outcome arrives after its final drain.
func (rt *app) close(ctx context.Context) error {
	var errs []error
	if rt.gate != nil {
		errs = append(errs, rt.gate.Close())
	}
	if rt.recorder != nil {
		errs = append(errs, rt.recorder.Close())
	}
	if rt.store != nil {
		errs = append(errs, rt.store.Close())
	}
	if rt.tracer != nil {
		errs = append(errs, rt.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func clientConfig(cfg *config.Config) submission.Config {
	return submission.Config{
		Endpoint:            cfg.Client.Endpoint,
		Token:               cfg.Client.Token,
		Timeout:             cfg.Client.Timeout,
		UserAgent:           cfg.Client.UserAgent,
		MaxIdleConns:        cfg.Client.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Client.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Client.IdleConnTimeout,
	}
}

// checkToken logs a warning when the access token is expired or about to
// expire. Tokens that are not JWTs are passed through silently.
func checkToken(token string, now time.Time) {
	if token == "" {
		slog.Warn("no access token configured; requests are sent without Authorization")
		return
	}
	exp, err := submission.TokenExpiry(token)
	if err != nil {
		slog.Debug("access token expiry unknown", "error", err)
		return
	}
	switch left := exp.Sub(now); {
	case left <= 0:
		slog.Warn("access token has expired", "expired_at", exp)
	case left < tokenWarnWindow:
		slog.Warn("access token expires soon", "expires_at", exp, "remaining", left.Round(time.Second))
	default:
		slog.Debug("access token valid", "expires_at", exp)
	}
}
