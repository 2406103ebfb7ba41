package types

import (
	"encoding/json"
	"testing"
)

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Amount
		expected string
	}{
		{"Add", func() Amount { return NewAmount(100).Add(NewAmount(200)) }, "300"},
		{"Sub", func() Amount { return NewAmount(500).Sub(NewAmount(200)) }, "300"},
		{"Sub negative", func() Amount { return NewAmount(200).Sub(NewAmount(500)) }, "-300"},
		{"Neg", func() Amount { return NewAmount(7).Neg() }, "-7"},
		{"MulUint64", func() Amount { return NewAmount(10000).MulUint64(4) }, "40000"},
		{"Quo floors", func() Amount { return NewAmount(1999).Quo(NewAmount(1000)) }, "1"},
		{"Quo by zero", func() Amount { return NewAmount(5).Quo(Amount{}) }, "0"},
		{"MulDiv", func() Amount { return NewAmount(7).MulDiv(NewAmount(3), NewAmount(7)) }, "3"},
		{"MulDiv floors", func() Amount { return NewAmount(10).MulDiv(NewAmount(1), NewAmount(3)) }, "3"},
		{"MulDiv zero den", func() Amount { return NewAmount(10).MulDiv(NewAmount(1), Amount{}) }, "0"},
		{"Tokens", func() Amount { return Tokens(3, 18) }, "3000000000000000000"},
		{"Zero value", func() Amount { return Amount{} }, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op().String(); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestAmountImmutable(t *testing.T) {
	a := NewAmount(10)
	_ = a.Add(NewAmount(5))
	_ = a.Neg()
	if a.String() != "10" {
		t.Errorf("operand mutated: got %s", a)
	}

	b := a.Big()
	b.SetInt64(99)
	if a.String() != "10" {
		t.Errorf("Big leaked internal state: got %s", a)
	}
}

func TestAmountComparison(t *testing.T) {
	small, big := NewAmount(1), NewAmount(2)
	if !small.LessThan(big) || small.GreaterThan(big) {
		t.Error("ordering is wrong")
	}
	if !MinAmount(small, big).Equal(small) {
		t.Error("MinAmount returned the larger value")
	}
	if !MaxAmount(small, big).Equal(big) {
		t.Error("MaxAmount returned the smaller value")
	}
	if !(Amount{}).IsZero() {
		t.Error("zero value should be zero")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1000", "1000", false},
		{"0x10", "16", false},
		{" 42 ", "42", false},
		{"", "0", false},
		{"-1", "", true},
		{"abc", "", true},
		{"0x10000000000000000000000000000000000000000000000000000000000000000", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount   Amount
		decimals uint
		want     string
	}{
		{MustParseAmount("1500000000000000000"), 18, "1.5"},
		{Tokens(2, 18), 18, "2"},
		{NewAmount(1), 18, "0.000000000000000001"},
		{NewAmount(-250), 2, "-2.5"},
		{NewAmount(42), 0, "42"},
	}

	for _, tt := range tests {
		if got := tt.amount.FormatUnits(tt.decimals); got != tt.want {
			t.Errorf("FormatUnits(%s, %d): got %s, want %s", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

func TestAmountJSON(t *testing.T) {
	a := MustParseAmount("123456789012345678901234567890")
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"123456789012345678901234567890"` {
		t.Errorf("unexpected encoding %s", data)
	}

	var fromNumber Amount
	if err := json.Unmarshal([]byte(`42`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if fromNumber.String() != "42" {
		t.Errorf("got %s, want 42", fromNumber)
	}
}
