package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/id"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/types"
)

// LendReceipt describes the outcome of a Lend.
type LendReceipt struct {
	// Position is the account's position after the lend, or nil when the
	// duration was too short to credit any epoch.
	Position *position.Position `json:"position,omitempty"`

	// StartEpoch and EndEpoch are the window this lend asked for. The window
	// is empty when EndEpoch < StartEpoch.
	StartEpoch epoch.Epoch  `json:"start_epoch"`
	EndEpoch   epoch.Epoch  `json:"end_epoch"`
	Amount     types.Amount `json:"amount"`

	// Merged is set when the lend was folded into a live position.
	Merged bool `json:"merged"`
}

// Lend commits amount of the account's principal for duration. Principal
// counts from the next epoch. A lend into a live position merges with it:
// the principals add up, the end is the later of both and the start stays.
// A lend into an expired position starts a fresh window whose principal also
// carries whatever of the old principal custody still holds.
//
// A duration shorter than two epochs credits no epoch. The amount is locked
// in custody but is not added to any position, so it is never counted by a
// later renewal either.
func (l *Ledger) Lend(ctx context.Context, account common.Address, amount types.Amount, duration time.Duration) (*LendReceipt, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if duration < 0 {
		return nil, ErrInvalidDuration
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.clock.Current()
	epochs := epoch.Count(duration, l.clock.Length())
	if epochs > l.maxEpochs+1 {
		return nil, ErrLendPeriodTooBig
	}

	start := cur + 1
	// An empty window is reported as [cur+1, cur].
	end := cur
	if epochs >= 2 {
		end = cur + epoch.Epoch(epochs) - 1
	}

	receipt := &LendReceipt{StartEpoch: start, EndEpoch: end, Amount: amount}
	b := newBatch(ctx, l.store)
	lockUntil := l.clock.Now().Add(duration)

	if end >= start {
		pos, err := b.position(account)
		if err != nil {
			return nil, err
		}

		var oldEnd epoch.Epoch
		switch {
		case pos != nil && pos.LiveAt(cur):
			oldEnd = pos.EndEpoch
			pos.Principal = pos.Principal.Add(amount)
			if end > pos.EndEpoch {
				pos.EndEpoch = end
			}
			pos.Touch()
			receipt.Merged = true
		case pos != nil:
			// Expired: the entries it left behind are all in the past.
			locked, err := l.custodian.LockedAmount(ctx, account)
			if err != nil {
				return nil, fmt.Errorf("lending: locked amount: %w", err)
			}
			oldEnd = pos.EndEpoch
			pos.Principal = types.MinAmount(pos.Principal, locked).Add(amount)
			pos.StartEpoch, pos.EndEpoch = start, end
			pos.Touch()
		default:
			pos = &position.Position{
				Entity:     types.NewEntity(),
				ID:         id.NewPositionID(),
				Account:    account,
				Principal:  amount,
				StartEpoch: start,
				EndEpoch:   end,
			}
		}

		if err := l.reshape(b, pos, oldEnd, cur); err != nil {
			return nil, err
		}
		receipt.Position = pos.Clone()
		lockUntil = later(lockUntil, l.until(pos.EndEpoch))
	}

	b.record(journal.Lended(account, start, end, amount))

	restore, err := l.custodySavepoint(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := l.custodian.LockUntil(ctx, account, amount, lockUntil); err != nil {
		return nil, fmt.Errorf("lending: lock principal: %w", err)
	}
	if receipt.Merged {
		if err := l.custodian.ExtendLock(ctx, account, l.until(receipt.Position.EndEpoch)); err != nil {
			restore()
			return nil, fmt.Errorf("lending: extend lock: %w", err)
		}
	}

	if err := l.commit(ctx, b); err != nil {
		restore()
		return nil, err
	}

	l.logger.Info("lended",
		"account", account.Hex(),
		"amount", amount.String(),
		"start_epoch", start,
		"end_epoch", end,
		"merged", receipt.Merged,
	)

	return receipt, nil
}

// IncreaseDuration re-expresses the account's position so that it ends
// newDuration from now. A live position keeps its start and its principal
// and may only grow. An expired position is renewed from the next epoch with
// whatever principal custody still holds.
func (l *Ledger) IncreaseDuration(ctx context.Context, account common.Address, newDuration time.Duration) (*position.Position, error) {
	if newDuration < 0 {
		return nil, ErrInvalidDuration
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := newBatch(ctx, l.store)
	pos, err := b.position(account)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, ErrPositionNotFound
	}

	cur := l.clock.Current()
	epochs := epoch.Count(newDuration, l.clock.Length())
	if epochs > l.maxEpochs+1 {
		return nil, ErrLendPeriodTooBig
	}
	if epochs < 2 {
		return nil, ErrInvalidDuration
	}
	newEnd := cur + epoch.Epoch(epochs) - 1

	oldEnd := pos.EndEpoch
	if pos.LiveAt(cur) {
		switch {
		case newEnd < oldEnd:
			return nil, ErrInvalidDuration
		case newEnd == oldEnd:
			return pos.Clone(), nil
		}
		pos.EndEpoch = newEnd
	} else {
		locked, err := l.custodian.LockedAmount(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("lending: locked amount: %w", err)
		}
		principal := types.MinAmount(pos.Principal, locked)
		if principal.Sign() <= 0 {
			return nil, ErrNothingToRenew
		}
		pos.Principal = principal
		pos.StartEpoch, pos.EndEpoch = cur+1, newEnd
	}
	pos.Touch()

	if err := l.reshape(b, pos, oldEnd, cur); err != nil {
		return nil, err
	}
	b.record(journal.DurationIncreased(account, pos.StartEpoch, pos.EndEpoch, pos.Principal))

	restore, err := l.custodySavepoint(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := l.custodian.ExtendLock(ctx, account, l.until(newEnd)); err != nil {
		return nil, fmt.Errorf("lending: extend lock: %w", err)
	}

	if err := l.commit(ctx, b); err != nil {
		restore()
		return nil, err
	}

	l.logger.Info("duration increased",
		"account", account.Hex(),
		"principal", pos.Principal.String(),
		"start_epoch", pos.StartEpoch,
		"end_epoch", pos.EndEpoch,
	)

	return pos.Clone(), nil
}

// reshape rewrites the future part of pos's schedule as the triangle of its
// principal over [StartEpoch, EndEpoch] and stages pos. Epochs up to cur are
// never touched. Epochs past the new end, up to oldEnd, are zeroed.
func (l *Ledger) reshape(b *batch, pos *position.Position, oldEnd, cur epoch.Epoch) error {
	from := pos.StartEpoch
	if from < cur+1 {
		from = cur + 1
	}
	to := pos.EndEpoch
	if oldEnd > to {
		to = oldEnd
	}

	p := pos.Principal.Quo(l.precision)
	for i := from; i <= to; i++ {
		amount, weight := types.Amount{}, types.Amount{}
		if i <= pos.EndEpoch {
			amount = pos.Principal
			weight = p.MulUint64(uint64(pos.EndEpoch - i + 1))
		}
		if err := b.setSchedule(pos.Account, i, amount, weight); err != nil {
			return err
		}
	}

	b.putPosition(pos)

	return nil
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
