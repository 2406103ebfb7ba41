// Package lending provides an epoch commitment ledger for a governance-token
// lending facility.
//
// Holders lend tokens for a duration measured in epochs. Borrowers draw
// against the pooled principal of each epoch, and rewards deposited for a
// past epoch are split among holders pro rata to a weight that decays
// linearly over each commitment window. Lending is a library: embed a Ledger
// in your application and give it a store.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/lending"
//	    "github.com/xraph/lending/store/memory"
//	)
//
//	l, err := lending.New(memory.New(),
//	    lending.WithClock(clock),
//	    lending.WithReleasers(operator),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// A lend made during epoch c for a duration spanning n epochs commits its
// principal over [c+1, c+n-1]. Each account holds one position; lending
// again while it is live merges into it and never moves its start.
//
//	receipt, err := l.Lend(ctx, holder, lending.Tokens(1000, 18), 90*24*time.Hour)
//
// Epoch i of a window ending at e carries weight p*(e-i+1), where p is the
// principal divided by the configured precision.
//
// Capacity in an epoch is the total principal committed to it. Borrowing
// never exceeds it:
//
//	err := l.Borrow(ctx, amount, l.CurrentEpoch()+1, borrower)
//
// Rewards are deposited for finished epochs and claimed once per account and
// epoch:
//
//	err := l.DepositReward(ctx, treasury, e, reward)
//	payout, err := l.Claim(ctx, holder, e)
//
// # Atomicity
//
// Every mutation validates all of its preconditions before writing, then
// commits its writes and a journal entry as one store transaction. A failed
// operation leaves no trace.
//
// # Stores
//
// Stores exist for memory, PostgreSQL and MongoDB (via Grove) and SQLite.
//
// # TypeID
//
// Positions and journal entries use TypeIDs:
//
//	pos_01h2xcejqtf2nbrexx3vqjhp41  // Position ID
//	jrn_01h455vb4pex5vsknk084sn02q  // Journal entry ID
package lending
