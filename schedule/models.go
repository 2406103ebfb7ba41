// Package schedule holds the per-epoch ledger entries: what each account has
// committed, weighted, borrowed and claimed in an epoch, and the epoch totals.
package schedule

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/types"
)

// AccountEpoch is one account's ledger entry for one epoch.
type AccountEpoch struct {
	Account  common.Address `json:"account"`
	Epoch    epoch.Epoch    `json:"epoch"`
	Amount   types.Amount   `json:"amount"`
	Weight   types.Amount   `json:"weight"`
	Borrowed types.Amount   `json:"borrowed"`
	Claimed  bool           `json:"claimed"`
}

// IsZero reports whether the entry carries no state.
func (a *AccountEpoch) IsZero() bool {
	return a.Amount.IsZero() && a.Weight.IsZero() && a.Borrowed.IsZero() && !a.Claimed
}

// EpochTotals aggregates every account's entries for one epoch, together with
// the reward deposited for it.
type EpochTotals struct {
	Epoch         epoch.Epoch  `json:"epoch"`
	Amount        types.Amount `json:"amount"`
	Weight        types.Amount `json:"weight"`
	Borrowed      types.Amount `json:"borrowed"`
	Reward        types.Amount `json:"reward"`
	RewardClaimed types.Amount `json:"reward_claimed"`
}

// Available returns the capacity still free for borrowing.
func (t *EpochTotals) Available() types.Amount {
	return t.Amount.Sub(t.Borrowed)
}

// RewardRemainder returns the part of the deposited reward not paid out.
// Once every holder has claimed, it is the integer-division dust.
func (t *EpochTotals) RewardRemainder() types.Amount {
	return t.Reward.Sub(t.RewardClaimed)
}
