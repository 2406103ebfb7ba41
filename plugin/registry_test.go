package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/plugin"
	"github.com/xraph/lending/types"
)

type counter struct {
	name string

	mu       sync.Mutex
	lended   int
	borrowed int
	inited   bool
}

func (c *counter) Name() string { return c.name }

func (c *counter) OnInit(context.Context, any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inited = true
	return nil
}

func (c *counter) OnLended(context.Context, *journal.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lended++
	return nil
}

func (c *counter) OnBorrowed(context.Context, *journal.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.borrowed++
	return errors.New("ignored")
}

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnLended(ctx context.Context, _ *journal.Entry) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(&counter{name: "a"}))
	require.Error(t, r.Register(&counter{name: "a"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("b"))
}

func TestEmitRoutesByKind(t *testing.T) {
	ctx := context.Background()
	account := common.HexToAddress("0x01")
	c := &counter{name: "counter"}

	r := plugin.NewRegistry()
	require.NoError(t, r.Register(c))

	r.EmitInit(ctx, nil)
	r.EmitEntries(ctx, []*journal.Entry{
		journal.Lended(account, 1, 2, types.NewAmount(5)),
		journal.Borrowed(account, 1, types.NewAmount(5)),
		journal.Borrowed(account, 2, types.NewAmount(5)),
		journal.RewardClaimed(account, 1, types.NewAmount(5)),
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.True(t, c.inited)
	assert.Equal(t, 1, c.lended)
	assert.Equal(t, 2, c.borrowed)
}

func TestSlowHookTimesOut(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(10 * time.Millisecond)
	require.NoError(t, r.Register(slow{}))

	start := time.Now()
	r.EmitEntry(context.Background(), journal.Lended(common.Address{}, 1, 1, types.NewAmount(1)))
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}
