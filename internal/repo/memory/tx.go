package memory

import (
	"context"
	"sync"
)

type txKey struct{}

// Checkpointer is a store whose state can be captured before a unit of work
// and put back when the unit fails.
type Checkpointer interface {
	Checkpoint() (restore func())
}

// TxRunner serializes units of work and rolls back the given stores when a
// unit returns an error. A rollback restores the whole store, so it also
// drops writes made outside any unit of work while the failed one ran.
type TxRunner struct {
	mu     sync.Mutex
	stores []Checkpointer
}

func NewTxRunner(stores ...Checkpointer) *TxRunner {
	return &TxRunner{stores: stores}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	restores := make([]func(), 0, len(r.stores))
	for _, s := range r.stores {
		restores = append(restores, s.Checkpoint())
	}

	err := fn(context.WithValue(ctx, txKey{}, true))
	if err != nil {
		for _, restore := range restores {
			restore()
		}
	}
	return err
}
