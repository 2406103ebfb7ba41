package lending

import "github.com/xraph/lending/id"

// ID is the primary identifier type for all Lending records.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
