package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/docgate/pkg/cli"
	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/journal"
	"mercator-hq/docgate/pkg/journal/retention"
	"mercator-hq/docgate/pkg/journal/storage"
)

var journalFlags struct {
	since   string
	until   string
	outcome string
	limit   int
	offset  int
	asc     bool
	output  string
	file    string

	days       int
	maxRecords int64
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect and prune the submission journal",
	Long: `Inspect and prune the submission journal.

Every submission attempt made while journal.enabled is set is recorded with
its outcome, timings, response status and document hash. The commands below
open the configured backend directly and work while "docgate watch" is
running against the same SQLite file or Redis server.

Subcommands:
  list   - List journal entries with filters
  prune  - Delete entries outside the retention policy`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	Long: `List journal entries, newest first.

--since and --until accept an RFC3339 timestamp or a duration relative to now
such as 24h or 30m.

Examples:
  # Rejected submissions of the last day
  docgate journal list --since 24h --outcome rejected

  # Export everything from March as CSV
  docgate journal list --since 2026-03-01T00:00:00Z --until 2026-04-01T00:00:00Z \
      --limit 10000 --output csv --file march.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if _, err := setupLogging(cfg); err != nil {
			return err
		}
		return runJournalList(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy now",
	Long: `Delete journal entries older than journal.retention.days and, when
journal.retention.max_records is set, the oldest entries above that count.

Examples:
  # Apply the configured policy
  docgate journal prune

  # Keep only the last 7 days
  docgate journal prune --days 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if _, err := setupLogging(cfg); err != nil {
			return err
		}
		if cmd.Flags().Changed("days") {
			cfg.Journal.Retention.Days = journalFlags.days
		}
		if cmd.Flags().Changed("max-records") {
			cfg.Journal.Retention.MaxRecords = journalFlags.maxRecords
		}
		return runJournalPrune(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd, journalPruneCmd)

	journalListCmd.Flags().StringVar(&journalFlags.since, "since", "", "only entries submitted at or after (RFC3339 or duration)")
	journalListCmd.Flags().StringVar(&journalFlags.until, "until", "", "only entries submitted at or before (RFC3339 or duration)")
	journalListCmd.Flags().StringVar(&journalFlags.outcome, "outcome", "", "filter by outcome: success, invalid, encode_error, admission_error, transport_error, rejected")
	journalListCmd.Flags().IntVar(&journalFlags.limit, "limit", journal.DefaultLimit, "max results")
	journalListCmd.Flags().IntVar(&journalFlags.offset, "offset", 0, "pagination offset")
	journalListCmd.Flags().BoolVar(&journalFlags.asc, "asc", false, "oldest first")
	journalListCmd.Flags().StringVarP(&journalFlags.output, "output", "o", "text", "output format: text, json, csv")
	journalListCmd.Flags().StringVarP(&journalFlags.file, "file", "f", "", "write to file instead of stdout")

	journalPruneCmd.Flags().IntVar(&journalFlags.days, "days", 0, "override retention days (0 disables age pruning)")
	journalPruneCmd.Flags().Int64Var(&journalFlags.maxRecords, "max-records", 0, "override the record cap (0 disables count pruning)")
}

func runJournalList(ctx context.Context, cfg *config.Config, out io.Writer) error {
	format, err := cli.ParseOutputFormat(journalFlags.output)
	if err != nil {
		return err
	}

	now := time.Now()
	query := &journal.Query{
		Outcome: journalFlags.outcome,
		Limit:   journalFlags.limit,
		Offset:  journalFlags.offset,
	}
	if journalFlags.asc {
		query.SortOrder = journal.SortAsc
	}
	if query.Since, err = parseTimeFlag("since", journalFlags.since, now); err != nil {
		return err
	}
	if query.Until, err = parseTimeFlag("until", journalFlags.until, now); err != nil {
		return err
	}
	journal.ApplyDefaults(query)
	if err := journal.Validate(query); err != nil {
		return cli.NewConfigError("query", err.Error())
	}

	store, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("journal list", err)
	}

	if journalFlags.file != "" {
		f, err := os.Create(journalFlags.file)
		if err != nil {
			return cli.NewCommandError("journal list", err)
		}
		defer f.Close()
		if err := cli.WriteEntries(ctx, f, format, entries); err != nil {
			return cli.NewCommandError("journal list", err)
		}
		fmt.Fprintf(out, "✓ Wrote %d entries to %s\n", len(entries), journalFlags.file)
		return f.Close()
	}

	return cli.WriteEntries(ctx, out, format, entries)
}

func runJournalPrune(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := retention.NewPruner(store, retentionConfig(cfg)).Prune(ctx)
	if err != nil {
		return cli.NewCommandError("journal prune", err)
	}

	fmt.Fprintf(out, "✓ Pruned %d entries (%d by age, %d by count)\n", result.Total(), result.ByAge, result.ByCount)
	return nil
}

func openJournal(ctx context.Context, cfg *config.Config) (journal.Storage, error) {
	if cfg.Journal.Backend == storage.BackendMemory {
		return nil, cli.NewConfigError("journal.backend", "the memory backend only lives inside a running process")
	}
	store, err := storage.Open(ctx, &cfg.Journal)
	if err != nil {
		return nil, cli.NewCommandError("journal", err)
	}
	return store, nil
}

// parseTimeFlag accepts an RFC3339 timestamp or a duration before now.
func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		t := now.Add(-d)
		return &t, nil
	}
	return nil, cli.NewConfigError(name, fmt.Sprintf("%q is neither an RFC3339 time nor a duration", value))
}
