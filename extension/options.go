package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/lending"
	"github.com/xraph/lending/plugin"
	"github.com/xraph/lending/store"
)

// Option configures the Lending Forge extension.
type Option func(*Extension)

// WithStore sets the store for the lending engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store from an already opened grove database,
// choosing the backend from its driver.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithLendingOption passes a lending.Option through to the underlying engine.
func WithLendingOption(opt lending.Option) Option {
	return func(e *Extension) {
		e.lendingOpts = append(e.lendingOpts, opt)
	}
}

// WithPlugin registers a lending plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.lendingOpts = append(e.lendingOpts, lending.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithEpochLength sets the duration of one epoch.
func WithEpochLength(d time.Duration) Option {
	return func(e *Extension) { e.config.EpochLength = d }
}

// WithGenesis sets the start of epoch 0.
func WithGenesis(t time.Time) Option {
	return func(e *Extension) { e.config.Genesis = t }
}

// WithMaxCommitmentEpochs bounds the length of a position.
func WithMaxCommitmentEpochs(n uint64) Option {
	return func(e *Extension) { e.config.MaxCommitmentEpochs = n }
}

// WithPrecision sets the principal divisor used for weights.
func WithPrecision(p string) Option {
	return func(e *Extension) { e.config.Precision = p }
}

// WithReleasers adds accounts allowed to release borrowed capacity.
func WithReleasers(addrs ...string) Option {
	return func(e *Extension) { e.config.Releasers = append(e.config.Releasers, addrs...) }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI container.
// The extension will auto-construct the appropriate store backend (postgres/mongo)
// based on the grove driver type. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}
