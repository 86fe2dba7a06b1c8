package commands

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/okian/linemate/internal/adapters/repository"
	"github.com/okian/linemate/internal/printer"
)

const redisTimeout = 3 * time.Second

// ledgerFlags holds one command's Redis connection flags.
type ledgerFlags struct {
	addr      string
	db        int
	namespace string
}

// addRedisFlags registers the ledger connection flags on cmd.
func addRedisFlags(cmd *cobra.Command, defaultAddr string) *ledgerFlags {
	f := &ledgerFlags{}
	cmd.Flags().StringVar(&f.addr, "redis", defaultAddr, "Redis address holding the pairing ledger")
	cmd.Flags().IntVar(&f.db, "redis-db", 0, "Redis database number")
	cmd.Flags().StringVar(&f.namespace, "namespace", "linemate", "Key namespace of the pairing ledger")
	return f
}

// open connects to the Redis ledger named by the flags.
func (f *ledgerFlags) open(ctx context.Context) (*repository.RedisLedger, error) {
	ledger, err := repository.NewRedisLedger(redis.NewClient(&redis.Options{
		Addr: f.addr,
		DB:   f.db,
	}), f.namespace)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := ledger.Ping(pingCtx); err != nil {
		_ = ledger.Close()
		return nil, printer.Error(
			"Cannot reach the pairing ledger",
			"Redis at "+f.addr+" did not answer: "+err.Error(),
			[]string{"Start Redis or pass --redis with the right address"},
		)
	}
	return ledger, nil
}
