package lending

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xraph/lending/custody"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/governance"
	"github.com/xraph/lending/plugin"
	"github.com/xraph/lending/store"
	"github.com/xraph/lending/types"
)

const (
	// DefaultMaxCommitmentEpochs is the longest creditable window.
	DefaultMaxCommitmentEpochs = 24

	// DefaultEpochLength is the epoch length of the default clock.
	DefaultEpochLength = 30 * 24 * time.Hour

	// DefaultDecimals is the token precision assumed by DefaultPrecision.
	DefaultDecimals = 18
)

// DefaultPrecision reduces principal to whole tokens before weighting.
var DefaultPrecision = types.Tokens(1, DefaultDecimals)

// Ledger is the epoch commitment engine.
type Ledger struct {
	// mu serialises mutations; each one reads, validates and commits as a unit.
	mu sync.Mutex

	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Collaborators
	clock     epoch.Clock
	custodian custody.Custodian
	oracle    governance.Oracle

	// Configuration
	releasers map[common.Address]struct{}
	maxEpochs uint64
	precision types.Amount
}

// New creates a new Ledger instance. Without WithClock the ledger counts
// DefaultEpochLength epochs from the Unix epoch; without WithCustodian it
// locks principal in an in-memory custody.Vault.
func New(s store.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		releasers: make(map[common.Address]struct{}),
		maxEpochs: DefaultMaxCommitmentEpochs,
		precision: DefaultPrecision,
	}

	for _, opt := range opts {
		opt(l)
	}

	var errs MultiError
	if s == nil {
		errs.Add(ValidationError{Field: "store", Message: "is required"})
	}
	if l.maxEpochs == 0 {
		errs.Add(ValidationError{Field: "max_commitment_epochs", Message: "must be positive"})
	}
	if l.precision.Sign() <= 0 {
		errs.Add(ValidationError{Field: "precision", Message: "must be positive"})
	}
	if errs.HasErrors() {
		return nil, errs
	}

	if l.clock == nil {
		c, err := epoch.NewFixedClock(time.Unix(0, 0), DefaultEpochLength)
		if err != nil {
			return nil, err
		}
		l.clock = c
	}
	if l.custodian == nil {
		l.custodian = custody.NewVault()
	}

	return l, nil
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the epoch clock.
func WithClock(c epoch.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithCustodian sets the custody layer that holds lent principal.
func WithCustodian(c custody.Custodian) Option {
	return func(l *Ledger) {
		l.custodian = c
	}
}

// WithGovernanceOracle makes reward claims conditional on governance
// participation in the claimed epoch.
func WithGovernanceOracle(o governance.Oracle) Option {
	return func(l *Ledger) {
		l.oracle = o
	}
}

// WithReleasers sets the callers allowed to release borrowed capacity.
func WithReleasers(accounts ...common.Address) Option {
	return func(l *Ledger) {
		for _, a := range accounts {
			l.releasers[a] = struct{}{}
		}
	}
}

// WithMaxCommitmentEpochs sets the longest creditable window.
func WithMaxCommitmentEpochs(n uint64) Option {
	return func(l *Ledger) {
		l.maxEpochs = n
	}
}

// WithPrecision sets the factor principal is divided by before weighting.
func WithPrecision(p types.Amount) Option {
	return func(l *Ledger) {
		l.precision = p
	}
}

// Start migrates the store and initialises plugins.
func (l *Ledger) Start(ctx context.Context) error {
	// Migrate database
	if err := l.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	// Initialize plugins
	l.plugins.EmitInit(ctx, l)

	l.logger.Info("lending started",
		"epoch", l.clock.Current(),
		"epoch_length", l.clock.Length(),
		"max_commitment_epochs", l.maxEpochs,
		"precision", l.precision.String(),
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	l.logger.Info("lending stopped")

	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Clock returns the epoch clock.
func (l *Ledger) Clock() epoch.Clock { return l.clock }

// Custodian returns the custody layer.
func (l *Ledger) Custodian() custody.Custodian { return l.custodian }

// MaxCommitmentEpochs returns the longest creditable window.
func (l *Ledger) MaxCommitmentEpochs() uint64 { return l.maxEpochs }

// Precision returns the weight precision-reduction factor.
func (l *Ledger) Precision() types.Amount { return l.precision }

// IsReleaser reports whether account may release borrowed capacity.
func (l *Ledger) IsReleaser(account common.Address) bool {
	_, ok := l.releasers[account]
	return ok
}

// commit persists b as one unit, then hands its journal to plugins.
func (l *Ledger) commit(ctx context.Context, b *batch) error {
	cs := b.changeset()
	if err := l.store.Commit(ctx, cs); err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	l.plugins.EmitEntries(ctx, cs.Journal)

	return nil
}

// custodySavepoint captures the account's custody lock before an operation
// changes it. The returned func puts the lock back; it is a no-op when the
// custodian is not a custody.Snapshotter.
func (l *Ledger) custodySavepoint(ctx context.Context, account common.Address) (func(), error) {
	s, ok := l.custodian.(custody.Snapshotter)
	if !ok {
		return func() {}, nil
	}

	snap, err := s.Snapshot(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("lending: snapshot custody: %w", err)
	}

	return func() {
		if err := s.Restore(ctx, account, snap); err != nil {
			l.logger.Error("custody restore failed",
				"account", account.Hex(),
				"error", err,
			)
		}
	}, nil
}

// until returns the wall-clock instant principal active through e may unlock.
func (l *Ledger) until(e epoch.Epoch) time.Time {
	return l.clock.EndOf(e)
}
