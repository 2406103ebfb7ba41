package lending

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/types"
)

// DepositReward adds amount to the reward of a past epoch e. Deposits to the
// same epoch accumulate.
func (l *Ledger) DepositReward(ctx context.Context, depositor common.Address, e epoch.Epoch, amount types.Amount) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e >= l.clock.Current() {
		return ErrInvalidEpoch
	}

	b := newBatch(ctx, l.store)
	t, err := b.epochTotals(e)
	if err != nil {
		return err
	}
	if t.Weight.IsZero() {
		l.logger.Warn("reward deposited into epoch without weight",
			"epoch", e,
			"amount", amount.String(),
		)
	}

	if err := b.addReward(e, amount); err != nil {
		return err
	}
	b.record(journal.RewardDeposited(depositor, e, amount))

	if err := l.commit(ctx, b); err != nil {
		return err
	}

	l.logger.Info("reward deposited",
		"depositor", depositor.Hex(),
		"epoch", e,
		"amount", amount.String(),
	)

	return nil
}

// Claim pays out the account's share of epoch e's reward, at most once.
func (l *Ledger) Claim(ctx context.Context, account common.Address, e epoch.Epoch) (types.Amount, error) {
	return l.ClaimRange(ctx, account, e, e)
}

// ClaimRange claims every epoch of [start, end] and returns the total. Any
// epoch that cannot be claimed fails the whole range.
func (l *Ledger) ClaimRange(ctx context.Context, account common.Address, start, end epoch.Epoch) (types.Amount, error) {
	if start > end {
		return types.Amount{}, ErrInvalidEpoch
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.clock.Current()
	b := newBatch(ctx, l.store)

	var total types.Amount
	for e := start; e <= end; e++ {
		payout, err := l.claimInto(b, account, e, cur)
		if err != nil {
			if start == end {
				return types.Amount{}, err
			}
			return types.Amount{}, &EpochError{Epoch: uint64(e), Err: err}
		}
		total = total.Add(payout)
	}

	if err := l.commit(ctx, b); err != nil {
		return types.Amount{}, err
	}

	l.logger.Info("reward claimed",
		"account", account.Hex(),
		"start_epoch", start,
		"end_epoch", end,
		"amount", total.String(),
	)

	return total, nil
}

// Claimable returns what Claim would pay for e without claiming it.
func (l *Ledger) Claimable(ctx context.Context, account common.Address, e epoch.Epoch) (types.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.claimInto(newBatch(ctx, l.store), account, e, l.clock.Current())
}

// claimInto stages a claim of epoch e and returns its payout.
func (l *Ledger) claimInto(b *batch, account common.Address, e, cur epoch.Epoch) (types.Amount, error) {
	if e >= cur {
		return types.Amount{}, ErrInvalidEpoch
	}

	ae, err := b.accountEpoch(account, e)
	if err != nil {
		return types.Amount{}, err
	}
	if ae.Claimed || ae.Weight.IsZero() {
		return types.Amount{}, ErrNothingToClaim
	}

	if l.oracle != nil {
		ok, err := l.oracle.DidParticipate(b.ctx, account, e)
		if err != nil {
			return types.Amount{}, fmt.Errorf("lending: governance oracle: %w", err)
		}
		if !ok {
			return types.Amount{}, ErrNotParticipatedInGovernanceAtEpoch
		}
	}

	t, err := b.epochTotals(e)
	if err != nil {
		return types.Amount{}, err
	}
	payout := t.Reward.MulDiv(ae.Weight, t.Weight)
	if payout.IsZero() {
		return types.Amount{}, ErrNothingToClaim
	}

	if err := b.markClaimed(account, e, payout); err != nil {
		return types.Amount{}, err
	}
	b.record(journal.RewardClaimed(account, e, payout))

	return payout, nil
}
