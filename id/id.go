// Package id defines the TypeID identifiers of positions and journal entries.
//
// IDs render as "prefix_suffix" with a UUIDv7 suffix, so two journal entries
// created one after the other compare in creation order as strings.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix is the TypeID prefix naming the kind of record.
type Prefix string

const (
	PrefixPosition     Prefix = "pos"
	PrefixJournalEntry Prefix = "jrn"
)

// ID wraps a TypeID. The zero value is Nil and stores as NULL.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// PositionID identifies a commitment position.
type PositionID = ID

// JournalEntryID identifies a journal entry.
type JournalEntryID = ID

// NewPositionID generates a "pos" ID.
func NewPositionID() ID { return generate(PrefixPosition) }

// NewJournalEntryID generates a "jrn" ID.
func NewJournalEntryID() ID { return generate(PrefixJournalEntry) }

// ParsePositionID parses s and requires the "pos" prefix.
func ParsePositionID(s string) (ID, error) { return parseAs(s, PrefixPosition) }

// ParseJournalEntryID parses s and requires the "jrn" prefix.
func ParseJournalEntryID(s string) (ID, error) { return parseAs(s, PrefixJournalEntry) }

func generate(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

func parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

func parseAs(s string, want Prefix) (ID, error) {
	parsed, err := parse(s)
	if err != nil {
		return Nil, err
	}
	if got := parsed.Prefix(); got != want {
		return Nil, fmt.Errorf("id: %q has prefix %q, want %q", s, got, want)
	}
	return parsed, nil
}

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the record kind, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner for TEXT columns.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
