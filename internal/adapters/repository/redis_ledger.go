package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/linemate/internal/domain/pairing"
	"github.com/okian/linemate/pkg/metrics"
)

const defaultNamespace = "linemate"

// RedisLedger keeps pairing counts in a single Redis hash.
// Fields are pairing.Pair.String() keys and values are counts.
type RedisLedger struct {
	rdb *redis.Client
	key string
}

var _ pairing.Ledger = (*RedisLedger)(nil)

// NewRedisLedger creates a ledger stored under "<namespace>:pairings".
func NewRedisLedger(client *redis.Client, namespace string) (*RedisLedger, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RedisLedger{rdb: client, key: namespace + ":pairings"}, nil
}

// Key returns the hash key holding the counts.
func (l *RedisLedger) Key() string { return l.key }

// Ping checks the connection.
func (l *RedisLedger) Ping(ctx context.Context) error {
	if err := l.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

func (l *RedisLedger) Count(ctx context.Context, a, b string) (int, error) {
	defer observe("count", time.Now())

	n, err := l.rdb.HGet(ctx, l.key, pairing.NewPair(a, b).String()).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read pairing count: %w", err)
	}
	return n, nil
}

// RecordGroup increments every pair of members in one MULTI/EXEC block.
func (l *RedisLedger) RecordGroup(ctx context.Context, members []string) error {
	defer observe("record_group", time.Now())

	if err := l.incr(ctx, pairing.Pairs(members)); err != nil {
		return fmt.Errorf("failed to record group: %w", err)
	}
	return nil
}

// RecordGroups increments the pairs of every group in a single MULTI/EXEC
// block, so a split is counted whole or not at all.
func (l *RedisLedger) RecordGroups(ctx context.Context, groups [][]string) error {
	defer observe("record_groups", time.Now())

	var pairs []pairing.Pair
	for _, g := range groups {
		pairs = append(pairs, pairing.Pairs(g)...)
	}
	if err := l.incr(ctx, pairs); err != nil {
		return fmt.Errorf("failed to record groups: %w", err)
	}
	return nil
}

func (l *RedisLedger) incr(ctx context.Context, pairs []pairing.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range pairs {
			pipe.HIncrBy(ctx, l.key, p.String(), 1)
		}
		return nil
	})
	return err
}

func (l *RedisLedger) Snapshot(ctx context.Context) (pairing.Counts, error) {
	defer observe("snapshot", time.Now())

	raw, err := l.rdb.HGetAll(ctx, l.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pairings: %w", err)
	}
	counts := make(pairing.Counts, len(raw))
	for field, value := range raw {
		p, ok := pairing.ParsePair(field)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse count for %q: %w", field, err)
		}
		counts[p] = n
	}
	metrics.UpdateLedgerPairs(len(counts))
	return counts, nil
}

func (l *RedisLedger) Reset(ctx context.Context) error {
	if err := l.rdb.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("failed to reset pairings: %w", err)
	}
	metrics.UpdateLedgerPairs(0)
	return nil
}

// Close closes the underlying client.
func (l *RedisLedger) Close() error {
	return l.rdb.Close()
}

func observe(op string, start time.Time) {
	metrics.RecordLedgerLatency(op, float64(time.Since(start).Microseconds())/1000.0)
}
