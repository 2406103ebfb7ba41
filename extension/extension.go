// Package extension provides the Forge extension adapter for Lending.
//
// It implements the forge.Extension interface to integrate the commitment
// ledger into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.lending" or "lending" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/lending"
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/store"
	"github.com/xraph/lending/store/memory"
	mongostore "github.com/xraph/lending/store/mongo"
	"github.com/xraph/lending/store/postgres"
	"github.com/xraph/lending/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "lending"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Epoch commitment ledger for lending capacity and rewards"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Lending as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *lending.Ledger
	store       store.Store
	groveDB     *grove.DB
	useGrove    bool
	lendingOpts []lending.Option
}

// New creates a new Lending Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *lending.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the lending engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.resolveStore(fapp); err != nil {
		return err
	}

	opts, err := e.buildLendingOpts()
	if err != nil {
		return err
	}

	eng, err := lending.New(e.store, opts...)
	if err != nil {
		return fmt.Errorf("lending: build engine: %w", err)
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*lending.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("lending: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("lending: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the store in priority order: an explicit store, an
// explicit grove database, a grove database from the DI container, and
// finally the in-memory store.
func (e *Extension) resolveStore(fapp forge.App) error {
	if e.store != nil {
		return nil
	}

	db := e.groveDB
	if db == nil && (e.useGrove || e.config.GroveDatabase != "") {
		var err error
		if e.config.GroveDatabase != "" {
			db, err = vessel.InjectNamed[*grove.DB](fapp.Container(), e.config.GroveDatabase)
		} else {
			db, err = vessel.Inject[*grove.DB](fapp.Container())
		}
		if err != nil {
			return fmt.Errorf("lending: resolve grove database %q: %w", e.config.GroveDatabase, err)
		}
	}

	if db == nil {
		e.store = memory.New()
		return nil
	}

	s, err := storeForGrove(db)
	if err != nil {
		return err
	}
	e.store = s
	return nil
}

// storeForGrove constructs the store backend matching the grove driver.
func storeForGrove(db *grove.DB) (store.Store, error) {
	switch name := db.Driver().Name(); name {
	case "pg":
		return postgres.New(db), nil
	case "mongo":
		return mongostore.New(db), nil
	default:
		return nil, fmt.Errorf("lending: unsupported grove driver %q", name)
	}
}

// buildLendingOpts constructs lending.Option values from the resolved config.
func (e *Extension) buildLendingOpts() ([]lending.Option, error) {
	opts := make([]lending.Option, 0, len(e.lendingOpts)+4)

	clock, err := epoch.NewFixedClock(e.config.Genesis, e.config.EpochLength)
	if err != nil {
		return nil, fmt.Errorf("lending: invalid epoch config: %w", err)
	}
	opts = append(opts, lending.WithClock(clock))

	if e.config.MaxCommitmentEpochs > 0 {
		opts = append(opts, lending.WithMaxCommitmentEpochs(e.config.MaxCommitmentEpochs))
	}

	if e.config.Precision != "" {
		p, err := types.ParseAmount(e.config.Precision)
		if err != nil {
			return nil, fmt.Errorf("lending: invalid precision: %w", err)
		}
		opts = append(opts, lending.WithPrecision(p))
	}

	if len(e.config.Releasers) > 0 {
		addrs := make([]common.Address, 0, len(e.config.Releasers))
		for _, r := range e.config.Releasers {
			if !common.IsHexAddress(r) {
				return nil, fmt.Errorf("lending: invalid releaser address %q", r)
			}
			addrs = append(addrs, common.HexToAddress(r))
		}
		opts = append(opts, lending.WithReleasers(addrs...))
	}

	// Append any pass-through lending options.
	opts = append(opts, e.lendingOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("lending: configuration is required but not found in config files; " +
				"ensure 'extensions.lending' or 'lending' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("lending: configuration loaded",
		forge.F("epoch_length", e.config.EpochLength),
		forge.F("genesis", e.config.Genesis),
		forge.F("max_commitment_epochs", e.config.MaxCommitmentEpochs),
		forge.F("precision", e.config.Precision),
		forge.F("releasers", len(e.config.Releasers)),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("grove_database", e.config.GroveDatabase),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.lending" first (namespaced pattern).
	if cm.IsSet("extensions.lending") {
		if err := cm.Bind("extensions.lending", &cfg); err == nil {
			e.Logger().Debug("lending: loaded config from file",
				forge.F("key", "extensions.lending"),
			)
			return cfg, true
		}
		e.Logger().Warn("lending: failed to bind extensions.lending config",
			forge.F("error", "bind failed"),
		)
	}

	// Try short "lending" key.
	if cm.IsSet("lending") {
		if err := cm.Bind("lending", &cfg); err == nil {
			e.Logger().Debug("lending: loaded config from file",
				forge.F("key", "lending"),
			)
			return cfg, true
		}
		e.Logger().Warn("lending: failed to bind lending config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.EpochLength == 0 {
		cfg.EpochLength = defaults.EpochLength
	}
	if cfg.Genesis.IsZero() {
		cfg.Genesis = defaults.Genesis
	}
	if cfg.MaxCommitmentEpochs == 0 {
		cfg.MaxCommitmentEpochs = defaults.MaxCommitmentEpochs
	}
	if cfg.Precision == "" {
		cfg.Precision = defaults.Precision
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.RequireConfig {
		yamlConfig.RequireConfig = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Precision == "" && programmaticConfig.Precision != "" {
		yamlConfig.Precision = programmaticConfig.Precision
	}
	if yamlConfig.GroveDatabase == "" && programmaticConfig.GroveDatabase != "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}

	// Duration/int/time fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.EpochLength == 0 && programmaticConfig.EpochLength != 0 {
		yamlConfig.EpochLength = programmaticConfig.EpochLength
	}
	if yamlConfig.Genesis.IsZero() && !programmaticConfig.Genesis.IsZero() {
		yamlConfig.Genesis = programmaticConfig.Genesis
	}
	if yamlConfig.MaxCommitmentEpochs == 0 && programmaticConfig.MaxCommitmentEpochs != 0 {
		yamlConfig.MaxCommitmentEpochs = programmaticConfig.MaxCommitmentEpochs
	}

	// Releasers from both sources apply.
	yamlConfig.Releasers = append(yamlConfig.Releasers, programmaticConfig.Releasers...)

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
