package position

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Store reads positions. Writes go through the ledger changeset.
type Store interface {
	GetPosition(ctx context.Context, account common.Address) (*Position, error)
	ListPositions(ctx context.Context, opts ListOpts) ([]*Position, error)
}

// ListOpts filters ListPositions. Results are ordered by account.
type ListOpts struct {
	Limit  int
	Offset int
}
