package position

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/id"
	"github.com/xraph/lending/types"
)

// Position is the single commitment an account holds in the ledger.
// Principal is active in every epoch of [StartEpoch, EndEpoch].
type Position struct {
	types.Entity
	ID         id.PositionID  `json:"id"`
	Account    common.Address `json:"account"`
	Principal  types.Amount   `json:"principal"`
	StartEpoch epoch.Epoch    `json:"start_epoch"`
	EndEpoch   epoch.Epoch    `json:"end_epoch"`
}

// LiveAt reports whether the position still covers an epoch after cur.
func (p *Position) LiveAt(cur epoch.Epoch) bool {
	return p.EndEpoch > cur
}

// Epochs returns the length of the window.
func (p *Position) Epochs() uint64 {
	if p.EndEpoch < p.StartEpoch {
		return 0
	}
	return uint64(p.EndEpoch-p.StartEpoch) + 1
}

// Clone returns a copy that can be modified independently.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}
