package store

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
)

// Store is the unified storage interface for all Lending entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Position methods
	GetPosition(ctx context.Context, account common.Address) (*position.Position, error)
	ListPositions(ctx context.Context, opts position.ListOpts) ([]*position.Position, error)

	// Schedule methods
	GetAccountEpoch(ctx context.Context, account common.Address, e epoch.Epoch) (*schedule.AccountEpoch, error)
	GetEpochTotals(ctx context.Context, e epoch.Epoch) (*schedule.EpochTotals, error)
	ListAccountEpochs(ctx context.Context, account common.Address, from, to epoch.Epoch) ([]*schedule.AccountEpoch, error)

	// Journal methods
	ListJournal(ctx context.Context, opts journal.ListOpts) ([]*journal.Entry, error)

	// Commit applies every write of one ledger operation. Either all of cs
	// becomes visible or none of it does.
	Commit(ctx context.Context, cs *Changeset) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Changeset is the full write set of one ledger operation. Entries replace
// whatever is stored under the same key; journal entries are appended.
type Changeset struct {
	Positions     []*position.Position
	AccountEpochs []*schedule.AccountEpoch
	EpochTotals   []*schedule.EpochTotals
	Journal       []*journal.Entry
}

// IsEmpty reports whether the changeset writes nothing.
func (cs *Changeset) IsEmpty() bool {
	return cs == nil ||
		len(cs.Positions) == 0 &&
			len(cs.AccountEpochs) == 0 &&
			len(cs.EpochTotals) == 0 &&
			len(cs.Journal) == 0
}
