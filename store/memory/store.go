// Package memory provides an in-memory Store for tests and single-process use.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	"github.com/xraph/lending/store"
)

type accountEpochKey struct {
	account common.Address
	epoch   epoch.Epoch
}

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Position storage, one per account
	positions map[common.Address]*position.Position

	// Schedule storage
	accountEpochs map[accountEpochKey]*schedule.AccountEpoch
	epochTotals   map[epoch.Epoch]*schedule.EpochTotals

	// Journal, append-only
	journal []*journal.Entry
}

func New() *Store {
	return &Store{
		positions:     make(map[common.Address]*position.Position),
		accountEpochs: make(map[accountEpochKey]*schedule.AccountEpoch),
		epochTotals:   make(map[epoch.Epoch]*schedule.EpochTotals),
		journal:       make([]*journal.Entry, 0),
	}
}

// Position Store implementation
func (s *Store) GetPosition(_ context.Context, account common.Address) (*position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.positions[account]; ok {
		return p.Clone(), nil
	}

	return nil, lending.ErrPositionNotFound
}

func (s *Store) ListPositions(_ context.Context, opts position.ListOpts) ([]*position.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*position.Position, 0, len(s.positions))
	for _, p := range s.positions {
		result = append(result, p.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].Account.Bytes(), result[j].Account.Bytes()) < 0
	})

	return page(result, opts.Offset, opts.Limit), nil
}

// Schedule Store implementation
func (s *Store) GetAccountEpoch(_ context.Context, account common.Address, e epoch.Epoch) (*schedule.AccountEpoch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ae, ok := s.accountEpochs[accountEpochKey{account, e}]; ok {
		c := *ae
		return &c, nil
	}

	return &schedule.AccountEpoch{Account: account, Epoch: e}, nil
}

func (s *Store) GetEpochTotals(_ context.Context, e epoch.Epoch) (*schedule.EpochTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.epochTotals[e]; ok {
		c := *t
		return &c, nil
	}

	return &schedule.EpochTotals{Epoch: e}, nil
}

func (s *Store) ListAccountEpochs(_ context.Context, account common.Address, from, to epoch.Epoch) ([]*schedule.AccountEpoch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*schedule.AccountEpoch, 0)
	for k, ae := range s.accountEpochs {
		if k.account == account && k.epoch >= from && k.epoch <= to {
			c := *ae
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Epoch < result[j].Epoch })

	return result, nil
}

// Journal Store implementation
func (s *Store) ListJournal(_ context.Context, opts journal.ListOpts) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.Entry, 0)
	for _, e := range s.journal {
		if opts.Matches(e) {
			c := *e
			result = append(result, &c)
		}
	}

	return page(result, opts.Offset, opts.Limit), nil
}

// Commit applies cs under the write lock, so readers never observe a partial
// operation.
func (s *Store) Commit(_ context.Context, cs *store.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range cs.Positions {
		s.positions[p.Account] = p.Clone()
	}
	for _, ae := range cs.AccountEpochs {
		c := *ae
		s.accountEpochs[accountEpochKey{ae.Account, ae.Epoch}] = &c
	}
	for _, t := range cs.EpochTotals {
		c := *t
		s.epochTotals[t.Epoch] = &c
	}
	for _, e := range cs.Journal {
		c := *e
		s.journal = append(s.journal, &c)
	}

	return nil
}

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// page applies limit/offset; a zero limit means no limit.
func page[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}

	return items[start:end]
}
