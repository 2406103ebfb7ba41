package extension

import (
	"time"

	"github.com/xraph/lending"
)

// Config holds the Lending extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.lending" or "lending" keys).
type Config struct {
	// EpochLength is the duration of one epoch (default: 30 days).
	EpochLength time.Duration `json:"epoch_length" mapstructure:"epoch_length" yaml:"epoch_length"`

	// Genesis is the start of epoch 0 (default: the Unix epoch).
	Genesis time.Time `json:"genesis" mapstructure:"genesis" yaml:"genesis"`

	// MaxCommitmentEpochs bounds the number of epochs a position may cover
	// (default: 24).
	MaxCommitmentEpochs uint64 `json:"max_commitment_epochs" mapstructure:"max_commitment_epochs" yaml:"max_commitment_epochs"`

	// Precision is the principal divisor applied before weighting, as a
	// decimal or 0x-prefixed integer (default: 10^18).
	Precision string `json:"precision" mapstructure:"precision" yaml:"precision"`

	// Releasers are the hex addresses allowed to release borrowed capacity.
	Releasers []string `json:"releasers" mapstructure:"releasers" yaml:"releasers"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and auto-constructs
	// the appropriate store based on the driver type (pg/mongo).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EpochLength:         lending.DefaultEpochLength,
		Genesis:             time.Unix(0, 0).UTC(),
		MaxCommitmentEpochs: lending.DefaultMaxCommitmentEpochs,
		Precision:           lending.DefaultPrecision.String(),
	}
}
