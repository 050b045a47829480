package retention

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/docgate/pkg/journal"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// Days is the number of days to keep entries. 0 keeps them forever.
	Days int

	// MaxRecords is the maximum number of entries to keep. 0 means unlimited.
	MaxRecords int64

	// Schedule is a cron expression for automatic pruning.
	Schedule string
}

// Result reports what a pruning run deleted.
type Result struct {
	ByAge   int64
	ByCount int64
}

// Total returns the number of deleted entries.
func (r Result) Total() int64 {
	return r.ByAge + r.ByCount
}

// Pruner enforces retention on a journal store.
type Pruner struct {
	storage journal.Storage
	config  *Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a pruner for storage.
func NewPruner(storage journal.Storage, config *Config) *Pruner {
	if config == nil {
		config = &Config{}
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "journal.retention"),
		now:     time.Now,
	}
}

// Prune runs the age phase and then the count phase.
func (p *Pruner) Prune(ctx context.Context) (Result, error) {
	var result Result

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return result, journal.NewRetentionError("age", err)
		}
		result.ByAge = deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return result, journal.NewRetentionError("count", err)
		}
		result.ByCount = deleted
	}

	if result.Total() == 0 {
		p.logger.Debug("no journal entries pruned",
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Info("journal pruning completed",
			"deleted_by_age", result.ByAge,
			"deleted_by_count", result.ByCount,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	}

	return result, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.Days)
	// Until is inclusive; keep an entry submitted exactly at the cutoff.
	until := cutoff.Add(-time.Nanosecond)

	p.logger.Debug("pruning by age", "cutoff_time", cutoff)

	return p.storage.Delete(ctx, &journal.Query{Until: &until})
}

// pruneByCount deletes the oldest entries beyond MaxRecords. Entries that
// share the submission time of the last one to go are deleted together.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &journal.Query{})
	if err != nil {
		return 0, err
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := count - p.config.MaxRecords
	oldest, err := p.storage.Query(ctx, &journal.Query{
		SortOrder: journal.SortAsc,
		Limit:     int(excess),
	})
	if err != nil {
		return 0, err
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	cutoff := oldest[len(oldest)-1].SubmittedAt
	p.logger.Info("journal exceeds max records, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"cutoff_time", cutoff,
	)

	return p.storage.Delete(ctx, &journal.Query{Until: &cutoff})
}
