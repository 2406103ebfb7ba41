// Package journal records every successful ledger mutation.
package journal

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/id"
	"github.com/xraph/lending/types"
)

// Kind names the mutation an entry records.
type Kind string

const (
	KindLended            Kind = "lended"
	KindDurationIncreased Kind = "duration_increased"
	KindBorrowed          Kind = "borrowed"
	KindReleased          Kind = "released"
	KindRewardDeposited   Kind = "reward_deposited"
	KindRewardClaimed     Kind = "reward_claimed"
)

// Entry is one journal record. Window mutations (lend, duration increase)
// set StartEpoch and EndEpoch; single-epoch mutations set Epoch.
type Entry struct {
	ID         id.JournalEntryID `json:"id"`
	Kind       Kind              `json:"kind"`
	Account    common.Address    `json:"account"`
	Epoch      epoch.Epoch       `json:"epoch"`
	StartEpoch epoch.Epoch       `json:"start_epoch"`
	EndEpoch   epoch.Epoch       `json:"end_epoch"`
	Amount     types.Amount      `json:"amount"`
	CreatedAt  time.Time         `json:"created_at"`
}

func newEntry(kind Kind, account common.Address, amount types.Amount) *Entry {
	return &Entry{
		ID:        id.NewJournalEntryID(),
		Kind:      kind,
		Account:   account,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// Lended records principal committed over [start, end].
func Lended(account common.Address, start, end epoch.Epoch, amount types.Amount) *Entry {
	e := newEntry(KindLended, account, amount)
	e.StartEpoch, e.EndEpoch = start, end
	return e
}

// DurationIncreased records a position re-expressed over [start, end].
func DurationIncreased(account common.Address, start, end epoch.Epoch, principal types.Amount) *Entry {
	e := newEntry(KindDurationIncreased, account, principal)
	e.StartEpoch, e.EndEpoch = start, end
	return e
}

// Borrowed records capacity drawn by borrower in ep.
func Borrowed(borrower common.Address, ep epoch.Epoch, amount types.Amount) *Entry {
	e := newEntry(KindBorrowed, borrower, amount)
	e.Epoch = ep
	return e
}

// Released records capacity returned for account in ep.
func Released(account common.Address, ep epoch.Epoch, amount types.Amount) *Entry {
	e := newEntry(KindReleased, account, amount)
	e.Epoch = ep
	return e
}

// RewardDeposited records reward injected for ep by depositor.
func RewardDeposited(depositor common.Address, ep epoch.Epoch, amount types.Amount) *Entry {
	e := newEntry(KindRewardDeposited, depositor, amount)
	e.Epoch = ep
	return e
}

// RewardClaimed records a payout to account for ep.
func RewardClaimed(account common.Address, ep epoch.Epoch, amount types.Amount) *Entry {
	e := newEntry(KindRewardClaimed, account, amount)
	e.Epoch = ep
	return e
}
