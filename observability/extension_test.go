package observability_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/observability"
	"github.com/xraph/lending/types"
)

type fakeMetric struct {
	mu       sync.Mutex
	count    float64
	observed []float64
}

func (f *fakeMetric) Inc()              { f.Add(1) }
func (f *fakeMetric) Add(v float64)     { f.mu.Lock(); f.count += v; f.mu.Unlock() }
func (f *fakeMetric) Observe(v float64) { f.mu.Lock(); f.observed = append(f.observed, v); f.mu.Unlock() }

type fakeFactory struct {
	metrics map[string]*fakeMetric
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{metrics: make(map[string]*fakeMetric)}
}

func (f *fakeFactory) get(name string) *fakeMetric {
	m, ok := f.metrics[name]
	if !ok {
		m = &fakeMetric{}
		f.metrics[name] = m
	}
	return m
}

func (f *fakeFactory) Counter(name string) observability.Counter     { return f.get(name) }
func (f *fakeFactory) Histogram(name string) observability.Histogram { return f.get(name) }

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	factory := newFakeFactory()
	m := observability.NewMetricsExtension(factory, 18)
	account := common.HexToAddress("0x01")

	require.NoError(t, m.OnLended(ctx, journal.Lended(account, 1, 4, types.Tokens(250, 18))))
	require.NoError(t, m.OnBorrowed(ctx, journal.Borrowed(account, 1, types.Tokens(10, 18))))
	require.NoError(t, m.OnBorrowed(ctx, journal.Borrowed(account, 2, types.Tokens(10, 18))))
	require.NoError(t, m.OnRewardClaimed(ctx, journal.RewardClaimed(account, 1, types.Tokens(1, 17))))

	assert.Equal(t, float64(1), factory.get("lending.lend.count").count)
	assert.Equal(t, []float64{250}, factory.get("lending.lend.amount").observed)
	assert.Equal(t, []float64{4}, factory.get("lending.lend.window_epochs").observed)
	assert.Equal(t, float64(2), factory.get("lending.borrow.count").count)
	assert.InDelta(t, 0.1, factory.get("lending.reward.claimed.amount").observed[0], 1e-9)
}
