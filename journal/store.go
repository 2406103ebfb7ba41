package journal

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Store reads the journal. Entries are appended through the ledger changeset.
type Store interface {
	ListJournal(ctx context.Context, opts ListOpts) ([]*Entry, error)
}

// ListOpts filters ListJournal. Results are ordered oldest first.
type ListOpts struct {
	Account *common.Address
	Kind    Kind
	Limit   int
	Offset  int
}

// Matches reports whether e passes the Account and Kind filters.
func (o ListOpts) Matches(e *Entry) bool {
	if o.Account != nil && e.Account != *o.Account {
		return false
	}
	if o.Kind != "" && e.Kind != o.Kind {
		return false
	}
	return true
}
