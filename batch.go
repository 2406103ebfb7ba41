package lending

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	"github.com/xraph/lending/store"
	"github.com/xraph/lending/types"
)

type accountEpochKey struct {
	account common.Address
	epoch   epoch.Epoch
}

// batch stages the writes of one operation. Reads go through the store once
// and are cached, so later reads observe earlier staged writes. Nothing
// reaches the store until the ledger commits the changeset.
type batch struct {
	ctx   context.Context
	store store.Store

	accountEpochs map[accountEpochKey]*schedule.AccountEpoch
	totals        map[epoch.Epoch]*schedule.EpochTotals
	positions     map[common.Address]*position.Position

	// Dirty keys in first-write order, so changesets are deterministic.
	dirtyAccountEpochs []accountEpochKey
	dirtyTotals        []epoch.Epoch
	dirtyPositions     []common.Address
	seen               map[any]struct{}

	journal []*journal.Entry
}

func newBatch(ctx context.Context, s store.Store) *batch {
	return &batch{
		ctx:           ctx,
		store:         s,
		accountEpochs: make(map[accountEpochKey]*schedule.AccountEpoch),
		totals:        make(map[epoch.Epoch]*schedule.EpochTotals),
		positions:     make(map[common.Address]*position.Position),
		seen:          make(map[any]struct{}),
	}
}

func (b *batch) accountEpoch(account common.Address, e epoch.Epoch) (*schedule.AccountEpoch, error) {
	key := accountEpochKey{account, e}
	if ae, ok := b.accountEpochs[key]; ok {
		return ae, nil
	}

	ae, err := b.store.GetAccountEpoch(b.ctx, account, e)
	if err != nil {
		return nil, err
	}
	b.accountEpochs[key] = ae

	return ae, nil
}

func (b *batch) epochTotals(e epoch.Epoch) (*schedule.EpochTotals, error) {
	if t, ok := b.totals[e]; ok {
		return t, nil
	}

	t, err := b.store.GetEpochTotals(b.ctx, e)
	if err != nil {
		return nil, err
	}
	b.totals[e] = t

	return t, nil
}

// position returns the account's position, or nil if it has none.
func (b *batch) position(account common.Address) (*position.Position, error) {
	if p, ok := b.positions[account]; ok {
		return p, nil
	}

	p, err := b.store.GetPosition(b.ctx, account)
	if errors.Is(err, ErrPositionNotFound) {
		return nil, nil //nolint:nilnil // absence is not an error here
	}
	if err != nil {
		return nil, err
	}
	b.positions[account] = p

	return p, nil
}

func (b *batch) touchAccountEpoch(key accountEpochKey) {
	if _, ok := b.seen[key]; !ok {
		b.seen[key] = struct{}{}
		b.dirtyAccountEpochs = append(b.dirtyAccountEpochs, key)
	}
}

func (b *batch) touchTotals(e epoch.Epoch) {
	if _, ok := b.seen[e]; !ok {
		b.seen[e] = struct{}{}
		b.dirtyTotals = append(b.dirtyTotals, e)
	}
}

// setSchedule overwrites the account's amount and weight for e and moves
// the epoch totals by the difference.
func (b *batch) setSchedule(account common.Address, e epoch.Epoch, amount, weight types.Amount) error {
	ae, err := b.accountEpoch(account, e)
	if err != nil {
		return err
	}
	t, err := b.epochTotals(e)
	if err != nil {
		return err
	}

	t.Amount = t.Amount.Add(amount.Sub(ae.Amount))
	t.Weight = t.Weight.Add(weight.Sub(ae.Weight))
	ae.Amount = amount
	ae.Weight = weight

	b.touchAccountEpoch(accountEpochKey{account, e})
	b.touchTotals(e)

	return nil
}

// addBorrowed moves the account's and the epoch's borrowed amount by delta.
func (b *batch) addBorrowed(account common.Address, e epoch.Epoch, delta types.Amount) error {
	ae, err := b.accountEpoch(account, e)
	if err != nil {
		return err
	}
	t, err := b.epochTotals(e)
	if err != nil {
		return err
	}

	ae.Borrowed = ae.Borrowed.Add(delta)
	t.Borrowed = t.Borrowed.Add(delta)

	b.touchAccountEpoch(accountEpochKey{account, e})
	b.touchTotals(e)

	return nil
}

func (b *batch) addReward(e epoch.Epoch, amount types.Amount) error {
	t, err := b.epochTotals(e)
	if err != nil {
		return err
	}

	t.Reward = t.Reward.Add(amount)
	b.touchTotals(e)

	return nil
}

func (b *batch) markClaimed(account common.Address, e epoch.Epoch, payout types.Amount) error {
	ae, err := b.accountEpoch(account, e)
	if err != nil {
		return err
	}
	t, err := b.epochTotals(e)
	if err != nil {
		return err
	}

	ae.Claimed = true
	t.RewardClaimed = t.RewardClaimed.Add(payout)

	b.touchAccountEpoch(accountEpochKey{account, e})
	b.touchTotals(e)

	return nil
}

func (b *batch) putPosition(p *position.Position) {
	b.positions[p.Account] = p
	if _, ok := b.seen[p.Account]; !ok {
		b.seen[p.Account] = struct{}{}
		b.dirtyPositions = append(b.dirtyPositions, p.Account)
	}
}

func (b *batch) record(e *journal.Entry) {
	b.journal = append(b.journal, e)
}

func (b *batch) changeset() *store.Changeset {
	cs := &store.Changeset{
		Positions:     make([]*position.Position, 0, len(b.dirtyPositions)),
		AccountEpochs: make([]*schedule.AccountEpoch, 0, len(b.dirtyAccountEpochs)),
		EpochTotals:   make([]*schedule.EpochTotals, 0, len(b.dirtyTotals)),
		Journal:       b.journal,
	}
	for _, a := range b.dirtyPositions {
		cs.Positions = append(cs.Positions, b.positions[a])
	}
	for _, k := range b.dirtyAccountEpochs {
		cs.AccountEpochs = append(cs.AccountEpochs, b.accountEpochs[k])
	}
	for _, e := range b.dirtyTotals {
		cs.EpochTotals = append(cs.EpochTotals, b.totals[e])
	}

	return cs
}
