package engine

import (
	"context"

	"github.com/roach88/gensweep/internal/store"
)

// Ledger is the subset of *store.Store the engine depends on.
type Ledger interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, start string, inclusive bool, fn func(store.Entry) error) error
	Flush(ctx context.Context) error
}

var _ Ledger = (*store.Store)(nil)
