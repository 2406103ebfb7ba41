package lending

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/types"
)

// Borrow draws amount of capacity in epoch e for borrower. e may be the
// current epoch or a later one.
func (l *Ledger) Borrow(ctx context.Context, amount types.Amount, e epoch.Epoch, borrower common.Address) error {
	return l.BorrowRange(ctx, amount, e, e, borrower)
}

// BorrowRange draws amount in every epoch of [start, end]. Either every
// epoch has the capacity and all are borrowed, or nothing is.
func (l *Ledger) BorrowRange(ctx context.Context, amount types.Amount, start, end epoch.Epoch, borrower common.Address) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := l.checkRange(start, end); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if start < l.clock.Current() {
		return ErrInvalidEpoch
	}

	b := newBatch(ctx, l.store)
	for i := uint64(0); i <= uint64(end-start); i++ {
		e := start + epoch.Epoch(i)
		t, err := b.epochTotals(e)
		if err != nil {
			return err
		}
		if amount.GreaterThan(t.Available()) {
			return &EpochError{Epoch: uint64(e), Err: ErrAmountNotAvailableInEpoch}
		}
		if err := b.addBorrowed(borrower, e, amount); err != nil {
			return err
		}
		b.record(journal.Borrowed(borrower, e, amount))
	}

	if err := l.commit(ctx, b); err != nil {
		return err
	}

	l.logger.Info("borrowed",
		"borrower", borrower.Hex(),
		"amount", amount.String(),
		"start_epoch", start,
		"end_epoch", end,
	)

	return nil
}

// Release returns amount of the capacity account borrowed in epoch e. Only
// configured releasers may call it.
func (l *Ledger) Release(ctx context.Context, caller, account common.Address, e epoch.Epoch, amount types.Amount) error {
	if !l.IsReleaser(caller) {
		return ErrUnauthorized
	}
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := newBatch(ctx, l.store)
	ae, err := b.accountEpoch(account, e)
	if err != nil {
		return err
	}
	if amount.GreaterThan(ae.Borrowed) {
		return ErrInvalidAmount
	}

	if err := b.addBorrowed(account, e, amount.Neg()); err != nil {
		return err
	}
	b.record(journal.Released(account, e, amount))

	if err := l.commit(ctx, b); err != nil {
		return err
	}

	l.logger.Info("released",
		"caller", caller.Hex(),
		"account", account.Hex(),
		"epoch", e,
		"amount", amount.String(),
	)

	return nil
}
