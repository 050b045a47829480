package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/docgate/pkg/cli"
	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/inbox"
	"mercator-hq/docgate/pkg/journal"
	"mercator-hq/docgate/pkg/journal/retention"
	"mercator-hq/docgate/pkg/submission"
	"mercator-hq/docgate/pkg/telemetry/health"
	"mercator-hq/docgate/pkg/telemetry/tracing"
)

const shutdownTimeout = 10 * time.Second

var watchFlags struct {
	dir     string
	listen  string
	format  string
	docType string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Submit document pairs dropped into an inbox directory",
	Long: `Watch an inbox directory and submit every complete document pair.

A pair is <name>.json holding the document and <name>.sig holding its
detached signature. Once both files exist and have been quiet for the
debounce interval the pair is submitted through the shared admission gate.
Submitted pairs move to the done directory next to <name>.response; failed
pairs move to the failed directory next to <name>.error.

When metrics are enabled a listener serves /metrics, /health, /ready and
/version. SIGINT or SIGTERM stops the watcher; submissions already started
are allowed to finish.

Examples:
  # Watch the configured inbox
  docgate watch --config docgate.yaml

  # Watch another directory and serve metrics on all interfaces
  docgate watch --dir /var/spool/docgate --listen 0.0.0.0:9090`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if _, err := setupLogging(cfg); err != nil {
			return err
		}
		applyWatchFlags(cfg)

		ctx, stop := cli.SetupSignalHandler(cmd.Context())
		defer stop()

		return runWatch(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlags.dir, "dir", "", "override the inbox directory (done/ and failed/ are placed under it)")
	watchCmd.Flags().StringVarP(&watchFlags.listen, "listen", "l", "", "override the metrics listen address and enable metrics")
	watchCmd.Flags().StringVar(&watchFlags.format, "format", string(submission.FormatManual), "document format of inbox documents: manual, xml, csv")
	watchCmd.Flags().StringVar(&watchFlags.docType, "type", submission.DocumentTypeIntroduceGoods, "document type of inbox documents")
}

func applyWatchFlags(cfg *config.Config) {
	if watchFlags.dir != "" {
		cfg.Inbox.Dir = watchFlags.dir
		cfg.Inbox.DoneDir = filepath.Join(watchFlags.dir, "done")
		cfg.Inbox.FailedDir = filepath.Join(watchFlags.dir, "failed")
	}
	if watchFlags.listen != "" {
		cfg.Telemetry.Metrics.Enabled = true
		cfg.Telemetry.Metrics.ListenAddress = watchFlags.listen
	}
}

func runWatch(ctx context.Context, cfg *config.Config) error {
	docFormat, err := submission.ParseDocumentFormat(watchFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	rt, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := rt.close(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	if rt.store != nil {
		scheduler := retention.NewScheduler(retention.NewPruner(rt.store, retentionConfig(cfg)))
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("watch", fmt.Errorf("failed to start journal retention: %w", err))
		}
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			slog.Info("journal retention scheduled", "next_run", next)
		}
	}

	watcher, err := inbox.New(cfg.Inbox, rt.client,
		inbox.WithFileObserver(rt.collector),
		inbox.WithRequestTemplate(submission.Request{Format: docFormat, Type: watchFlags.docType}),
	)
	if err != nil {
		return cli.NewConfigError("inbox", err.Error())
	}

	var srv *http.Server
	srvErr := make(chan error, 1)
	if cfg.Telemetry.Metrics.Enabled {
		var ln net.Listener
		srv, ln, err = startListener(cfg, rt)
		if err != nil {
			return cli.NewCommandError("watch", err)
		}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srvErr <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
		slog.Info("metrics listener started",
			"address", ln.Addr().String(),
			"metrics_path", cfg.Telemetry.Metrics.Path,
		)
	}

	slog.Info("docgate watch started",
		"version", Version,
		"endpoint", rt.client.Endpoint(),
		"gate_limit", cfg.Gate.Limit,
		"gate_period", cfg.Gate.Period,
		"journal", cfg.Journal.Enabled,
	)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(watchCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping")
		cancelWatch()
		runErr = <-watchErr
	case runErr = <-watchErr:
	case runErr = <-srvErr:
		cancelWatch()
		if err := <-watchErr; err != nil {
			slog.Error("inbox watcher failed", "error", err)
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics listener shutdown failed", "error", err)
		}
	}

	if runErr != nil {
		return cli.NewCommandError("watch", runErr)
	}
	slog.Info("docgate watch stopped")
	return nil
}

// startListener binds the metrics and health listener. A busy port fails
// startup rather than surfacing after the watcher has started.
func startListener(cfg *config.Config, rt *app) (*http.Server, net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.Telemetry.Metrics.ListenAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Telemetry.Metrics.Path, rt.collector.Handler())

	checker := health.New(2 * time.Second)
	checker.RegisterCheck("gate", func(context.Context) error {
		if rt.gate.Stats().Closed {
			return errors.New("admission gate closed")
		}
		return nil
	})
	if rt.store != nil {
		checker.RegisterCheck("journal", func(ctx context.Context) error {
			_, err := rt.store.Count(ctx, &journal.Query{})
			return err
		})
	}
	health.Mount(mux, checker, Version, GitCommit, BuildDate)

	srv := &http.Server{
		Handler:           tracing.HTTPMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv, ln, nil
}

func retentionConfig(cfg *config.Config) *retention.Config {
	return &retention.Config{
		Days:       cfg.Journal.Retention.Days,
		MaxRecords: cfg.Journal.Retention.MaxRecords,
		Schedule:   cfg.Journal.Retention.Schedule,
	}
}
