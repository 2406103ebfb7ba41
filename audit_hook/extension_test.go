package audithook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audithook "github.com/xraph/lending/audit_hook"
	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/types"
)

func collector() (audithook.RecorderFunc, *[]*audithook.AuditEvent) {
	var events []*audithook.AuditEvent
	return func(_ context.Context, evt *audithook.AuditEvent) error {
		events = append(events, evt)
		return nil
	}, &events
}

func TestRecordsJournalEntries(t *testing.T) {
	ctx := context.Background()
	rec, events := collector()
	ext := audithook.New(rec)
	account := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	entry := journal.Borrowed(account, 7, types.NewAmount(42))
	require.NoError(t, ext.OnBorrowed(ctx, entry))

	require.Len(t, *events, 1)
	evt := (*events)[0]
	assert.Equal(t, audithook.ActionBorrowed, evt.Action)
	assert.Equal(t, audithook.CategoryCapacity, evt.Category)
	assert.Equal(t, entry.ID.String(), evt.ResourceID)
	assert.Equal(t, "42", evt.Metadata["amount"])
	assert.Equal(t, uint64(7), evt.Metadata["epoch"])
	assert.Equal(t, account.Hex(), evt.Metadata["account"])
}

func TestActionFilters(t *testing.T) {
	ctx := context.Background()
	account := common.HexToAddress("0x01")

	rec, events := collector()
	ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionRewardClaimed))
	require.NoError(t, ext.OnRewardClaimed(ctx, journal.RewardClaimed(account, 1, types.NewAmount(1))))
	require.NoError(t, ext.OnLended(ctx, journal.Lended(account, 1, 2, types.NewAmount(1))))
	require.Len(t, *events, 1)
	assert.Equal(t, audithook.ActionLended, (*events)[0].Action)

	rec, events = collector()
	ext = audithook.New(rec, audithook.WithEnabledActions(audithook.ActionReleased))
	require.NoError(t, ext.OnLended(ctx, journal.Lended(account, 1, 2, types.NewAmount(1))))
	require.NoError(t, ext.OnReleased(ctx, journal.Released(account, 1, types.NewAmount(1))))
	require.Len(t, *events, 1)
	assert.Equal(t, audithook.ActionReleased, (*events)[0].Action)
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))
	err := ext.OnRewardDeposited(context.Background(),
		journal.RewardDeposited(common.Address{}, 1, types.NewAmount(1)))
	assert.NoError(t, err)
}
