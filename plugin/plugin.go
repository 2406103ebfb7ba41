// Package plugin provides an extensible plugin system for Lending.
// Plugins hook into ledger mutations after they have been committed.
package plugin

import (
	"context"

	"github.com/xraph/lending/journal"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts. l is the *lending.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Commitment hooks
// ──────────────────────────────────────────────────

// OnLended is called after principal has been committed.
type OnLended interface {
	Plugin
	OnLended(ctx context.Context, entry *journal.Entry) error
}

// OnDurationIncreased is called after a position has been extended or renewed.
type OnDurationIncreased interface {
	Plugin
	OnDurationIncreased(ctx context.Context, entry *journal.Entry) error
}

// ──────────────────────────────────────────────────
// Capacity hooks
// ──────────────────────────────────────────────────

// OnBorrowed is called once per epoch borrowed against.
type OnBorrowed interface {
	Plugin
	OnBorrowed(ctx context.Context, entry *journal.Entry) error
}

// OnReleased is called after borrowed capacity has been returned.
type OnReleased interface {
	Plugin
	OnReleased(ctx context.Context, entry *journal.Entry) error
}

// ──────────────────────────────────────────────────
// Reward hooks
// ──────────────────────────────────────────────────

// OnRewardDeposited is called after reward has been deposited for an epoch.
type OnRewardDeposited interface {
	Plugin
	OnRewardDeposited(ctx context.Context, entry *journal.Entry) error
}

// OnRewardClaimed is called once per epoch claimed.
type OnRewardClaimed interface {
	Plugin
	OnRewardClaimed(ctx context.Context, entry *journal.Entry) error
}
