package lending

import (
	"github.com/xraph/lending/epoch"
	"github.com/xraph/lending/types"
)

// Re-export common types for convenience so users don't have to import the
// types and epoch packages.

// Amount is re-exported from types package.
type Amount = types.Amount

// Epoch is re-exported from epoch package.
type Epoch = epoch.Epoch

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount constructors
var (
	NewAmount   = types.NewAmount
	Tokens      = types.Tokens
	ParseAmount = types.ParseAmount
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
