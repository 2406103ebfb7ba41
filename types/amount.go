// Package types provides common types used across Lending.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

var bigZero = new(big.Int)

// Amount is a token quantity in the smallest unit of the token (wei for an
// 18-decimals token). All arithmetic is integer-only and the value is
// immutable: every operation returns a new Amount.
//
// The zero value is a valid zero amount.
type Amount struct {
	v *big.Int
}

// NewAmount returns an Amount holding x.
func NewAmount(x int64) Amount { return Amount{v: big.NewInt(x)} }

// AmountFromBig returns an Amount holding a copy of x. A nil x is zero.
func AmountFromBig(x *big.Int) Amount {
	if x == nil {
		return Amount{}
	}
	return Amount{v: new(big.Int).Set(x)}
}

// Tokens returns n whole tokens expressed in a token with the given decimals.
// Tokens(3, 18) is 3e18.
func Tokens(n int64, decimals uint) Amount {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return Amount{v: scale.Mul(scale, big.NewInt(n))}
}

// ParseAmount parses a non-negative decimal or 0x-prefixed hex integer of at
// most 256 bits.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, nil
	}
	v, ok := math.ParseBig256(s)
	if !ok {
		return Amount{}, fmt.Errorf("amount: invalid value %q", s)
	}
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount: negative value %q", s)
	}
	return Amount{v: v}, nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) int() *big.Int {
	if a.v == nil {
		return bigZero
	}
	return a.v
}

// Big returns a copy of the underlying integer.
func (a Amount) Big() *big.Int { return new(big.Int).Set(a.int()) }

// Arithmetic operations

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.int(), b.int())}
}

// Sub returns a - b. The result may be negative.
func (a Amount) Sub(b Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.int(), b.int())}
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{v: new(big.Int).Neg(a.int())}
}

// MulUint64 returns a * n.
func (a Amount) MulUint64(n uint64) Amount {
	return Amount{v: new(big.Int).Mul(a.int(), new(big.Int).SetUint64(n))}
}

// Quo returns floor(a / d) for non-negative operands. Division by zero
// yields zero.
func (a Amount) Quo(d Amount) Amount {
	if d.Sign() == 0 {
		return Amount{}
	}
	return Amount{v: new(big.Int).Quo(a.int(), d.int())}
}

// MulDiv returns floor(a * num / den) with full intermediate precision.
// A zero denominator yields zero.
func (a Amount) MulDiv(num, den Amount) Amount {
	if den.Sign() == 0 {
		return Amount{}
	}
	p := new(big.Int).Mul(a.int(), num.int())
	return Amount{v: p.Quo(p, den.int())}
}

// Comparison methods

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int { return a.int().Sign() }

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.Sign() == 0 }

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.int().Cmp(b.int()) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.Cmp(b) > 0 }

// MinAmount returns the smaller of a and b.
func MinAmount(a, b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// MaxAmount returns the larger of a and b.
func MaxAmount(a, b Amount) Amount {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Formatting methods

// String returns the base-10 representation.
func (a Amount) String() string { return a.int().String() }

// FormatUnits renders the amount as a decimal in whole-token units, trimming
// trailing zeros. FormatUnits(18) of 1500000000000000000 is "1.5".
func (a Amount) FormatUnits(decimals uint) string {
	if decimals == 0 {
		return a.String()
	}
	abs := new(big.Int).Abs(a.int())
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, scale, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		digits := frac.String()
		digits = strings.Repeat("0", int(decimals)-len(digits)) + digits
		out += "." + strings.TrimRight(digits, "0")
	}
	if a.Sign() < 0 {
		return "-" + out
	}
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	v, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		return fmt.Errorf("amount: invalid value %q", data)
	}
	a.v = v
	return nil
}

// MarshalJSON encodes the amount as a JSON string so that values above 2^53
// survive JavaScript consumers.
func (a Amount) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	return a.UnmarshalText([]byte(s))
}
