// Package observability provides a metrics extension for Lending that records
// ledger mutation counts and sizes through a MetricFactory.
package observability

import (
	"context"
	"math/big"

	"github.com/xraph/lending/journal"
	"github.com/xraph/lending/plugin"
	"github.com/xraph/lending/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnLended            = (*MetricsExtension)(nil)
	_ plugin.OnDurationIncreased = (*MetricsExtension)(nil)
	_ plugin.OnBorrowed          = (*MetricsExtension)(nil)
	_ plugin.OnReleased          = (*MetricsExtension)(nil)
	_ plugin.OnRewardDeposited   = (*MetricsExtension)(nil)
	_ plugin.OnRewardClaimed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger mutation metrics.
// Register it as a Lending plugin to track activity automatically.
type MetricsExtension struct {
	factory  MetricFactory
	decimals uint

	// Commitment metrics
	Lended            Counter
	LendedAmount      Histogram
	LendWindowEpochs  Histogram
	DurationIncreased Counter
	RenewedWindow     Histogram

	// Capacity metrics
	Borrowed       Counter
	BorrowedAmount Histogram
	Released       Counter
	ReleasedAmount Histogram

	// Reward metrics
	RewardDeposited       Counter
	RewardDepositedAmount Histogram
	RewardClaimed         Counter
	RewardClaimedAmount   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided
// MetricFactory. Amount histograms observe whole tokens of the given
// decimals.
func NewMetricsExtension(factory MetricFactory, decimals uint) *MetricsExtension {
	return &MetricsExtension{
		factory:  factory,
		decimals: decimals,

		// Commitment metrics
		Lended:            factory.Counter("lending.lend.count"),
		LendedAmount:      factory.Histogram("lending.lend.amount"),
		LendWindowEpochs:  factory.Histogram("lending.lend.window_epochs"),
		DurationIncreased: factory.Counter("lending.duration_increased.count"),
		RenewedWindow:     factory.Histogram("lending.duration_increased.window_epochs"),

		// Capacity metrics
		Borrowed:       factory.Counter("lending.borrow.count"),
		BorrowedAmount: factory.Histogram("lending.borrow.amount"),
		Released:       factory.Counter("lending.release.count"),
		ReleasedAmount: factory.Histogram("lending.release.amount"),

		// Reward metrics
		RewardDeposited:       factory.Counter("lending.reward.deposited"),
		RewardDepositedAmount: factory.Histogram("lending.reward.deposited.amount"),
		RewardClaimed:         factory.Counter("lending.reward.claimed"),
		RewardClaimedAmount:   factory.Histogram("lending.reward.claimed.amount"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	// No initialization needed
	return nil
}

// OnLended implements plugin.OnLended.
func (m *MetricsExtension) OnLended(_ context.Context, e *journal.Entry) error {
	m.Lended.Inc()
	m.LendedAmount.Observe(m.tokens(e.Amount))
	m.LendWindowEpochs.Observe(windowEpochs(e))
	return nil
}

// OnDurationIncreased implements plugin.OnDurationIncreased.
func (m *MetricsExtension) OnDurationIncreased(_ context.Context, e *journal.Entry) error {
	m.DurationIncreased.Inc()
	m.RenewedWindow.Observe(windowEpochs(e))
	return nil
}

// OnBorrowed implements plugin.OnBorrowed.
func (m *MetricsExtension) OnBorrowed(_ context.Context, e *journal.Entry) error {
	m.Borrowed.Inc()
	m.BorrowedAmount.Observe(m.tokens(e.Amount))
	return nil
}

// OnReleased implements plugin.OnReleased.
func (m *MetricsExtension) OnReleased(_ context.Context, e *journal.Entry) error {
	m.Released.Inc()
	m.ReleasedAmount.Observe(m.tokens(e.Amount))
	return nil
}

// OnRewardDeposited implements plugin.OnRewardDeposited.
func (m *MetricsExtension) OnRewardDeposited(_ context.Context, e *journal.Entry) error {
	m.RewardDeposited.Inc()
	m.RewardDepositedAmount.Observe(m.tokens(e.Amount))
	return nil
}

// OnRewardClaimed implements plugin.OnRewardClaimed.
func (m *MetricsExtension) OnRewardClaimed(_ context.Context, e *journal.Entry) error {
	m.RewardClaimed.Inc()
	m.RewardClaimedAmount.Observe(m.tokens(e.Amount))
	return nil
}

// tokens converts a base-unit amount to a float of whole tokens. Precision
// loss is acceptable for metrics.
func (m *MetricsExtension) tokens(a types.Amount) float64 {
	f := new(big.Float).SetInt(a.Big())
	if m.decimals > 0 {
		scale := new(big.Float).SetInt(types.Tokens(1, m.decimals).Big())
		f.Quo(f, scale)
	}
	v, _ := f.Float64()
	return v
}

func windowEpochs(e *journal.Entry) float64 {
	if e.EndEpoch < e.StartEpoch {
		return 0
	}
	return float64(e.EndEpoch-e.StartEpoch) + 1
}
