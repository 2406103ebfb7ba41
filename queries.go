package lending

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	"github.com/xraph/lending/types"
)

// PartsPerMillion is the scale of UtilizationRatioByEpochsRange.
const PartsPerMillion = 1_000_000

// ──────────────────────────────────────────────────
// Point reads
// ──────────────────────────────────────────────────

// CurrentEpoch returns the clock's current epoch.
func (l *Ledger) CurrentEpoch() epoch.Epoch { return l.clock.Current() }

// Position returns the account's position.
func (l *Ledger) Position(ctx context.Context, account common.Address) (*position.Position, error) {
	return l.store.GetPosition(ctx, account)
}

// AccountEpoch returns the account's full entry for e.
func (l *Ledger) AccountEpoch(ctx context.Context, account common.Address, e epoch.Epoch) (*schedule.AccountEpoch, error) {
	return l.store.GetAccountEpoch(ctx, account, e)
}

// EpochTotals returns the aggregated entry for e.
func (l *Ledger) EpochTotals(ctx context.Context, e epoch.Epoch) (*schedule.EpochTotals, error) {
	return l.store.GetEpochTotals(ctx, e)
}

// AmountByEpoch returns the account's principal counted in e.
func (l *Ledger) AmountByEpoch(ctx context.Context, account common.Address, e epoch.Epoch) (types.Amount, error) {
	ae, err := l.store.GetAccountEpoch(ctx, account, e)
	if err != nil {
		return types.Amount{}, err
	}
	return ae.Amount, nil
}

// WeightByEpoch returns the account's reward weight in e.
func (l *Ledger) WeightByEpoch(ctx context.Context, account common.Address, e epoch.Epoch) (types.Amount, error) {
	ae, err := l.store.GetAccountEpoch(ctx, account, e)
	if err != nil {
		return types.Amount{}, err
	}
	return ae.Weight, nil
}

// BorrowedByEpoch returns what the account has borrowed in e.
func (l *Ledger) BorrowedByEpoch(ctx context.Context, account common.Address, e epoch.Epoch) (types.Amount, error) {
	ae, err := l.store.GetAccountEpoch(ctx, account, e)
	if err != nil {
		return types.Amount{}, err
	}
	return ae.Borrowed, nil
}

// Claimed reports whether the account has claimed e's reward.
func (l *Ledger) Claimed(ctx context.Context, account common.Address, e epoch.Epoch) (bool, error) {
	ae, err := l.store.GetAccountEpoch(ctx, account, e)
	if err != nil {
		return false, err
	}
	return ae.Claimed, nil
}

// TotalAmountByEpoch returns the principal of all accounts counted in e.
func (l *Ledger) TotalAmountByEpoch(ctx context.Context, e epoch.Epoch) (types.Amount, error) {
	return l.totalsField(ctx, e, func(t *schedule.EpochTotals) types.Amount { return t.Amount })
}

// TotalWeightByEpoch returns the sum of every account's weight in e.
func (l *Ledger) TotalWeightByEpoch(ctx context.Context, e epoch.Epoch) (types.Amount, error) {
	return l.totalsField(ctx, e, func(t *schedule.EpochTotals) types.Amount { return t.Weight })
}

// TotalBorrowedByEpoch returns everything borrowed in e.
func (l *Ledger) TotalBorrowedByEpoch(ctx context.Context, e epoch.Epoch) (types.Amount, error) {
	return l.totalsField(ctx, e, func(t *schedule.EpochTotals) types.Amount { return t.Borrowed })
}

// RewardByEpoch returns the reward deposited for e.
func (l *Ledger) RewardByEpoch(ctx context.Context, e epoch.Epoch) (types.Amount, error) {
	return l.totalsField(ctx, e, func(t *schedule.EpochTotals) types.Amount { return t.Reward })
}

// RewardRemainder returns e's deposited reward not yet paid out. After every
// holder has claimed it is the rounding remainder of the pro-rata split.
func (l *Ledger) RewardRemainder(ctx context.Context, e epoch.Epoch) (types.Amount, error) {
	return l.totalsField(ctx, e, (*schedule.EpochTotals).RewardRemainder)
}

// AvailableCapacity returns what can still be borrowed in e.
func (l *Ledger) AvailableCapacity(ctx context.Context, e epoch.Epoch) (types.Amount, error) {
	return l.totalsField(ctx, e, (*schedule.EpochTotals).Available)
}

func (l *Ledger) totalsField(ctx context.Context, e epoch.Epoch, field func(*schedule.EpochTotals) types.Amount) (types.Amount, error) {
	t, err := l.store.GetEpochTotals(ctx, e)
	if err != nil {
		return types.Amount{}, err
	}
	return field(t), nil
}

// ──────────────────────────────────────────────────
// Range reads
// ──────────────────────────────────────────────────

// TotalAmountByEpochsRange returns the total amount of each epoch in [start, end].
// The range may span at most MaxCommitmentEpochs epochs.
func (l *Ledger) TotalAmountByEpochsRange(ctx context.Context, start, end epoch.Epoch) ([]types.Amount, error) {
	return l.totalsRange(ctx, start, end, func(t *schedule.EpochTotals) types.Amount { return t.Amount })
}

// TotalWeightByEpochsRange returns the total weight of each epoch in [start, end].
func (l *Ledger) TotalWeightByEpochsRange(ctx context.Context, start, end epoch.Epoch) ([]types.Amount, error) {
	return l.totalsRange(ctx, start, end, func(t *schedule.EpochTotals) types.Amount { return t.Weight })
}

// TotalBorrowedByEpochsRange returns the total borrowed of each epoch in [start, end].
func (l *Ledger) TotalBorrowedByEpochsRange(ctx context.Context, start, end epoch.Epoch) ([]types.Amount, error) {
	return l.totalsRange(ctx, start, end, func(t *schedule.EpochTotals) types.Amount { return t.Borrowed })
}

// UtilizationRatioByEpochsRange returns borrowed/amount of each epoch in
// [start, end] in parts per million. An epoch with no capacity reports 0.
func (l *Ledger) UtilizationRatioByEpochsRange(ctx context.Context, start, end epoch.Epoch) ([]uint64, error) {
	if err := l.checkRange(start, end); err != nil {
		return nil, err
	}

	ppm := types.NewAmount(PartsPerMillion)
	out := make([]uint64, 0, int(end-start)+1)
	for i := uint64(0); i <= uint64(end-start); i++ {
		e := start + epoch.Epoch(i)
		t, err := l.store.GetEpochTotals(ctx, e)
		if err != nil {
			return nil, err
		}
		out = append(out, t.Borrowed.MulDiv(ppm, t.Amount).Big().Uint64())
	}

	return out, nil
}

func (l *Ledger) totalsRange(ctx context.Context, start, end epoch.Epoch, field func(*schedule.EpochTotals) types.Amount) ([]types.Amount, error) {
	if err := l.checkRange(start, end); err != nil {
		return nil, err
	}

	out := make([]types.Amount, 0, int(end-start)+1)
	for i := uint64(0); i <= uint64(end-start); i++ {
		e := start + epoch.Epoch(i)
		t, err := l.store.GetEpochTotals(ctx, e)
		if err != nil {
			return nil, err
		}
		out = append(out, field(t))
	}

	return out, nil
}

// checkRange accepts [start, end] when it is ordered and spans at most
// MaxCommitmentEpochs epochs.
func (l *Ledger) checkRange(start, end epoch.Epoch) error {
	if start > end || uint64(end-start) >= l.maxEpochs {
		return ErrInvalidEpoch
	}
	return nil
}

// ──────────────────────────────────────────────────
// Listings
// ──────────────────────────────────────────────────

// Schedule returns the account's stored entries within [from, to].
func (l *Ledger) Schedule(ctx context.Context, account common.Address, from, to epoch.Epoch) ([]*schedule.AccountEpoch, error) {
	if from > to {
		return nil, ErrInvalidEpoch
	}
	return l.store.ListAccountEpochs(ctx, account, from, to)
}

// Positions lists every position.
func (l *Ledger) Positions(ctx context.Context, opts position.ListOpts) ([]*position.Position, error) {
	return l.store.ListPositions(ctx, opts)
}

// Journal lists journal entries, oldest first.
func (l *Ledger) Journal(ctx context.Context, opts journal.ListOpts) ([]*journal.Entry, error) {
	return l.store.ListJournal(ctx, opts)
}

// HasPosition reports whether the account has ever lent.
func (l *Ledger) HasPosition(ctx context.Context, account common.Address) (bool, error) {
	_, err := l.store.GetPosition(ctx, account)
	if errors.Is(err, ErrPositionNotFound) {
		return false, nil
	}
	return err == nil, err
}
