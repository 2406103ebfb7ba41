package schedule

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
)

// Store reads per-epoch entries. Both getters return a zero-valued entry
// rather than an error when nothing has been recorded.
type Store interface {
	GetAccountEpoch(ctx context.Context, account common.Address, e epoch.Epoch) (*AccountEpoch, error)
	GetEpochTotals(ctx context.Context, e epoch.Epoch) (*EpochTotals, error)
	// ListAccountEpochs returns the stored entries of account within
	// [from, to], ordered by epoch.
	ListAccountEpochs(ctx context.Context, account common.Address, from, to epoch.Epoch) ([]*AccountEpoch, error)
}
