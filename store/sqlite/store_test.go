package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/lending"
	"github.com/xraph/lending/custody"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/id"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/position"
	"github.com/xraph/lending/schedule"
	"github.com/xraph/lending/store"
	"github.com/xraph/lending/store/sqlite"
	"github.com/xraph/lending/types"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "lending.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
}

func TestGetMissingEntries(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.GetPosition(ctx, alice)
	assert.ErrorIs(t, err, lending.ErrPositionNotFound)

	ae, err := s.GetAccountEpoch(ctx, alice, 3)
	require.NoError(t, err)
	assert.Equal(t, alice, ae.Account)
	assert.True(t, ae.IsZero())

	totals, err := s.GetEpochTotals(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, epoch.Epoch(3), totals.Epoch)
	assert.True(t, totals.Reward.IsZero())
}

func TestCommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	big := types.MustParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	pos := &position.Position{
		Entity:     types.NewEntity(),
		ID:         id.NewPositionID(),
		Account:    alice,
		Principal:  big,
		StartEpoch: 1,
		EndEpoch:   2,
	}
	first := journal.Lended(alice, 1, 2, big)
	second := journal.Borrowed(bob, 1, types.NewAmount(5))

	require.NoError(t, s.Commit(ctx, &store.Changeset{
		Positions: []*position.Position{pos},
		AccountEpochs: []*schedule.AccountEpoch{
			{Account: alice, Epoch: 2, Amount: big, Weight: big},
			{Account: alice, Epoch: 1, Amount: big, Weight: big, Claimed: true},
		},
		EpochTotals: []*schedule.EpochTotals{
			{Epoch: 1, Amount: big, Weight: big, Borrowed: types.NewAmount(5), Reward: types.NewAmount(9)},
		},
		Journal: []*journal.Entry{first, second},
	}))

	got, err := s.GetPosition(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, pos.ID.String(), got.ID.String())
	assert.True(t, got.Principal.Equal(big))
	assert.Equal(t, epoch.Epoch(2), got.EndEpoch)
	assert.True(t, got.CreatedAt.Equal(pos.CreatedAt))

	entries, err := s.ListAccountEpochs(ctx, alice, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, epoch.Epoch(1), entries[0].Epoch)
	assert.True(t, entries[0].Claimed)
	assert.False(t, entries[1].Claimed)

	totals, err := s.GetEpochTotals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "5", totals.Borrowed.String())
	assert.Equal(t, "9", totals.Reward.String())

	all, err := s.ListJournal(ctx, journal.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID.String(), all[0].ID.String())
	assert.Equal(t, journal.KindBorrowed, all[1].Kind)

	onlyBob, err := s.ListJournal(ctx, journal.ListOpts{Account: &bob})
	require.NoError(t, err)
	require.Len(t, onlyBob, 1)
	assert.Equal(t, bob, onlyBob[0].Account)
}

func TestCommitUpserts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	ae := &schedule.AccountEpoch{Account: alice, Epoch: 4, Amount: types.NewAmount(10)}
	require.NoError(t, s.Commit(ctx, &store.Changeset{AccountEpochs: []*schedule.AccountEpoch{ae}}))

	ae.Amount = types.NewAmount(30)
	ae.Borrowed = types.NewAmount(7)
	require.NoError(t, s.Commit(ctx, &store.Changeset{AccountEpochs: []*schedule.AccountEpoch{ae}}))

	got, err := s.GetAccountEpoch(ctx, alice, 4)
	require.NoError(t, err)
	assert.Equal(t, "30", got.Amount.String())
	assert.Equal(t, "7", got.Borrowed.String())
}

func TestListPositionsPaging(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, acct := range []common.Address{bob, alice} {
		require.NoError(t, s.Commit(ctx, &store.Changeset{Positions: []*position.Position{{
			Entity:     types.NewEntity(),
			ID:         id.NewPositionID(),
			Account:    acct,
			Principal:  types.NewAmount(1),
			StartEpoch: 1,
			EndEpoch:   1,
		}}}))
	}

	all, err := s.ListPositions(ctx, position.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, alice, all[0].Account)

	page, err := s.ListPositions(ctx, position.ListOpts{Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, bob, page[0].Account)
}

func TestLockStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	vault := custody.NewVault(custody.WithLockStore(s))

	until := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, vault.LockUntil(ctx, alice, types.NewAmount(40), until))
	require.NoError(t, vault.ExtendLock(ctx, alice, until.Add(time.Hour)))

	// A fresh vault over the same store sees the persisted lock.
	reopened := custody.NewVault(custody.WithLockStore(s))
	lock, err := reopened.Lock(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "40", lock.Amount.String())
	assert.True(t, lock.Until.Equal(until.Add(time.Hour)))

	_, err = reopened.Withdraw(ctx, alice, until)
	assert.ErrorIs(t, err, custody.ErrStillLocked)

	amt, err := reopened.Withdraw(ctx, alice, until.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "40", amt.String())

	missing, err := s.LoadLock(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLedgerOverSQLite(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	clock := epoch.NewManualClock(24 * time.Hour)

	l, err := lending.New(s,
		lending.WithClock(clock),
		lending.WithCustodian(custody.NewVault(custody.WithLockStore(s))),
		lending.WithPrecision(types.NewAmount(1)),
	)
	require.NoError(t, err)

	_, err = l.Lend(ctx, alice, types.NewAmount(100), 3*24*time.Hour)
	require.NoError(t, err)

	w, err := l.WeightByEpoch(ctx, alice, 1)
	require.NoError(t, err)
	assert.Equal(t, "200", w.String())

	require.NoError(t, l.Borrow(ctx, types.NewAmount(60), 2, bob))
	err = l.BorrowRange(ctx, types.NewAmount(50), 2, 3, bob)
	assert.ErrorIs(t, err, lending.ErrAmountNotAvailableInEpoch)

	borrowed, err := l.TotalBorrowedByEpoch(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "60", borrowed.String(), "failed range must not leave partial writes")
}
