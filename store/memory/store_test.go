package memory_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/lending"
	"github.com/xraph/lending/id"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	"github.com/xraph/lending/store"
	"github.com/xraph/lending/store/memory"
	"github.com/xraph/lending/types"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func TestGetMissingEntries(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.GetPosition(ctx, alice)
	assert.ErrorIs(t, err, lending.ErrPositionNotFound)

	ae, err := s.GetAccountEpoch(ctx, alice, 3)
	require.NoError(t, err)
	assert.Equal(t, alice, ae.Account)
	assert.True(t, ae.IsZero())

	totals, err := s.GetEpochTotals(ctx, 3)
	require.NoError(t, err)
	assert.True(t, totals.Amount.IsZero())
}

func TestCommitAndRead(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	pos := &position.Position{
		Entity:     types.NewEntity(),
		ID:         id.NewPositionID(),
		Account:    alice,
		Principal:  types.NewAmount(100),
		StartEpoch: 1,
		EndEpoch:   2,
	}
	cs := &store.Changeset{
		Positions: []*position.Position{pos},
		AccountEpochs: []*schedule.AccountEpoch{
			{Account: alice, Epoch: 2, Amount: types.NewAmount(100), Weight: types.NewAmount(100)},
			{Account: alice, Epoch: 1, Amount: types.NewAmount(100), Weight: types.NewAmount(200)},
		},
		EpochTotals: []*schedule.EpochTotals{
			{Epoch: 1, Amount: types.NewAmount(100), Weight: types.NewAmount(200)},
		},
		Journal: []*journal.Entry{
			journal.Lended(alice, 1, 2, types.NewAmount(100)),
			journal.Borrowed(bob, 1, types.NewAmount(10)),
		},
	}
	require.NoError(t, s.Commit(ctx, cs))

	// Stored values are copies.
	pos.Principal = types.NewAmount(1)

	got, err := s.GetPosition(ctx, alice)
	require.NoError(t, err)
	assert.True(t, got.Principal.Equal(types.NewAmount(100)))

	entries, err := s.ListAccountEpochs(ctx, alice, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.EqualValues(t, 1, entries[0].Epoch)
	assert.EqualValues(t, 2, entries[1].Epoch)

	all, err := s.ListJournal(ctx, journal.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byBob, err := s.ListJournal(ctx, journal.ListOpts{Account: &bob})
	require.NoError(t, err)
	require.Len(t, byBob, 1)
	assert.Equal(t, journal.KindBorrowed, byBob[0].Kind)

	paged, err := s.ListJournal(ctx, journal.ListOpts{Offset: 1, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, paged, 1)

	positions, err := s.ListPositions(ctx, position.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, positions, 1)
}

func TestCommitEmptyChangeset(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Commit(context.Background(), &store.Changeset{}))
	require.NoError(t, s.Commit(context.Background(), nil))
}
