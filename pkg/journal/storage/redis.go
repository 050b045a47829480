package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/journal"
)

// RedisStorage implements journal.Storage on Redis.
//
// Each entry is a hash at <prefix>entry:<id>. The sorted set <prefix>index
// holds every ID scored by submission time in Unix microseconds, which
// stays exact in a float64 score.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	owned  bool
	logger *slog.Logger
}

// NewRedisStorage connects to the server described by cfg and checks it
// with PING.
func NewRedisStorage(ctx context.Context, cfg config.RedisConfig) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, journal.NewStorageError("redis", "ping", err)
	}

	s := NewRedisStorageWithClient(client, cfg.Prefix)
	s.owned = true

	s.logger.Info("Redis storage initialized",
		"address", cfg.Address,
		"db", cfg.DB,
		"prefix", cfg.Prefix,
	)

	return s, nil
}

// NewRedisStorageWithClient wraps an existing client. Close does not close
// a client passed in this way.
func NewRedisStorageWithClient(client redis.UniversalClient, prefix string) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "journal.storage.redis"),
	}
}

func (s *RedisStorage) entryKey(id string) string {
	return s.prefix + "entry:" + id
}

func (s *RedisStorage) indexKey() string {
	return s.prefix + "index"
}

// Store writes the entry hash and its index member in one transaction.
func (s *RedisStorage) Store(ctx context.Context, entry *journal.Entry) error {
	key := s.entryKey(entry.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, entryFields(entry))
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{
			Score:  score(entry.SubmittedAt),
			Member: entry.ID,
		})
		return nil
	})
	if err != nil {
		return journal.NewStorageError("redis", "store", err)
	}
	return nil
}

// Get returns the entry with id.
func (s *RedisStorage) Get(ctx context.Context, id string) (*journal.Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.entryKey(id)).Result()
	if err != nil {
		return nil, journal.NewStorageError("redis", "get", err)
	}
	if len(fields) == 0 {
		return nil, journal.NewStorageError("redis", "get", journal.ErrNotFound)
	}
	entry, err := parseEntry(fields)
	if err != nil {
		return nil, journal.NewStorageError("redis", "get", err)
	}
	return entry, nil
}

// Query returns matching entries ordered by submission time.
func (s *RedisStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.Entry, error) {
	entries, err := s.load(ctx, query, "query")
	if err != nil {
		return nil, err
	}
	return paginate(entries, query), nil
}

// Count returns the number of matching entries.
func (s *RedisStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	if query.Outcome == "" {
		lo, hi := scoreRange(query)
		n, err := s.client.ZCount(ctx, s.indexKey(), lo, hi).Result()
		if err != nil {
			return 0, journal.NewStorageError("redis", "count", err)
		}
		return n, nil
	}

	entries, err := s.load(ctx, query, "count")
	if err != nil {
		return 0, err
	}
	return int64(len(entries)), nil
}

// Delete removes matching entries and their index members.
func (s *RedisStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	entries, err := s.load(ctx, query, "delete")
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, entry := range entries {
			pipe.Del(ctx, s.entryKey(entry.ID))
			pipe.ZRem(ctx, s.indexKey(), entry.ID)
		}
		return nil
	})
	if err != nil {
		return 0, journal.NewStorageError("redis", "delete", err)
	}
	return int64(len(entries)), nil
}

// Close closes the client if the storage created it.
func (s *RedisStorage) Close() error {
	if !s.owned {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return journal.NewStorageError("redis", "close", err)
	}
	s.logger.Info("Redis storage closed")
	return nil
}

// load fetches every entry in the query's time range and applies the
// remaining filters. Index members whose hash has gone are skipped.
func (s *RedisStorage) load(ctx context.Context, query *journal.Query, op string) ([]*journal.Entry, error) {
	lo, hi := scoreRange(query)
	ids, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{Min: lo, Max: hi}).Result()
	if err != nil {
		return nil, journal.NewStorageError("redis", op, err)
	}
	if len(ids) == 0 {
		return []*journal.Entry{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.entryKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, journal.NewStorageError("redis", op, err)
	}

	entries := make([]*journal.Entry, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		entry, err := parseEntry(fields)
		if err != nil {
			return nil, journal.NewStorageError("redis", op, err)
		}
		if query.Matches(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func score(t time.Time) float64 {
	return float64(t.UnixMicro())
}

// scoreRange converts the query time bounds to ZRANGEBYSCORE arguments.
// Bounds are widened to whole microseconds; Matches applies the exact check.
func scoreRange(query *journal.Query) (lo, hi string) {
	lo, hi = "-inf", "+inf"
	if query.Since != nil {
		lo = strconv.FormatInt(query.Since.UnixMicro(), 10)
	}
	if query.Until != nil {
		hi = strconv.FormatInt(query.Until.UnixMicro()+1, 10)
	}
	return lo, hi
}

func entryFields(entry *journal.Entry) map[string]any {
	return map[string]any{
		"id":              entry.ID,
		"submitted_at":    entry.SubmittedAt.UTC().Format(time.RFC3339Nano),
		"recorded_at":     entry.RecordedAt.UTC().Format(time.RFC3339Nano),
		"document_type":   entry.DocumentType,
		"document_format": entry.DocumentFormat,
		"document_hash":   entry.DocumentHash,
		"wait_ns":         int64(entry.Wait),
		"latency_ns":      int64(entry.Latency),
		"status_code":     entry.StatusCode,
		"outcome":         entry.Outcome,
		"response":        entry.Response,
		"error":           entry.Error,
	}
}

func parseEntry(fields map[string]string) (*journal.Entry, error) {
	entry := &journal.Entry{
		ID:             fields["id"],
		DocumentType:   fields["document_type"],
		DocumentFormat: fields["document_format"],
		DocumentHash:   fields["document_hash"],
		Outcome:        fields["outcome"],
		Response:       fields["response"],
		Error:          fields["error"],
	}

	var errs []error
	parseTime := func(name string) time.Time {
		t, err := time.Parse(time.RFC3339Nano, fields[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", name, err))
		}
		return t
	}
	parseInt := func(name string) int64 {
		if fields[name] == "" {
			return 0
		}
		n, err := strconv.ParseInt(fields[name], 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", name, err))
		}
		return n
	}

	entry.SubmittedAt = parseTime("submitted_at")
	entry.RecordedAt = parseTime("recorded_at")
	entry.Wait = time.Duration(parseInt("wait_ns"))
	entry.Latency = time.Duration(parseInt("latency_ns"))
	entry.StatusCode = int(parseInt("status_code"))

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entry, nil
}
