// Package governance provides the participation oracle that can gate reward
// claims on having voted during an epoch.
package governance

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
)

// Oracle reports whether an account took part in a governance vote that was
// open during an epoch.
type Oracle interface {
	DidParticipate(ctx context.Context, account common.Address, e epoch.Epoch) (bool, error)
}

// OracleFunc is an adapter to use a plain function as an Oracle.
type OracleFunc func(ctx context.Context, account common.Address, e epoch.Epoch) (bool, error)

// DidParticipate implements Oracle.
func (f OracleFunc) DidParticipate(ctx context.Context, account common.Address, e epoch.Epoch) (bool, error) {
	return f(ctx, account, e)
}

// compile-time interface check
var _ Oracle = (*Registry)(nil)

// Registry is an in-memory Oracle fed by Record.
type Registry struct {
	mu    sync.RWMutex
	votes map[common.Address]map[epoch.Epoch]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{votes: make(map[common.Address]map[epoch.Epoch]struct{})}
}

// Record marks the account as having participated in each given epoch.
func (r *Registry) Record(account common.Address, epochs ...epoch.Epoch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.votes[account]
	if !ok {
		set = make(map[epoch.Epoch]struct{})
		r.votes[account] = set
	}
	for _, e := range epochs {
		set[e] = struct{}{}
	}
}

// DidParticipate implements Oracle.
func (r *Registry) DidParticipate(_ context.Context, account common.Address, e epoch.Epoch) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.votes[account][e]
	return ok, nil
}
