package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{".", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		in   any
		out  int64
		ok   bool
	}{
		{"string", "25.50", 2550, true},
		{"float", 25.5, 2550, true},
		{"float cents", 15.0, 1500, true},
		{"tiny float", 0.1, 10, true},
		{"int", 3, 300, true},
		{"json number", json.Number("12.34"), 1234, true},
		{"json exponent", json.Number("1e2"), 10000, true},
		{"json exponent fraction", json.Number("2.5555E1"), 2556, true},
		{"json negative exponent", json.Number("1.5e-2"), 2, true},
		{"json huge exponent", json.Number("1e999999"), 0, false},
		{"json negative with exponent", json.Number("-1e2"), 0, false},
		{"zero", 0.0, 0, true},
		{"negative float", -1.0, 0, false},
		{"negative int", -1, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil || got.Cents != tc.out {
				t.Fatalf("expected %d cents, got %d (err=%v)", tc.out, got.Cents, err)
			}
		})
	}
}

func TestMoneyCheckedAdd(t *testing.T) {
	if got, ok := (Money{Cents: 2550}).CheckedAdd(Money{Cents: 1500}); !ok || got.Cents != 4050 {
		t.Fatalf("CheckedAdd = %v, %v", got, ok)
	}
	if _, ok := (Money{Cents: math.MaxInt64 - 1}).CheckedAdd(Money{Cents: 2}); ok {
		t.Fatal("expected overflow to be reported")
	}
	if got, ok := (Money{Cents: math.MaxInt64}).CheckedAdd(Money{}); !ok || got.Cents != math.MaxInt64 {
		t.Fatalf("adding zero at the limit = %v, %v", got, ok)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		2550:  "25.50",
		4050:  "40.50",
		-1234: "-12.34",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 2550}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":25.50}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"7,25"`), &m); err != nil || m.Cents != 725 {
		t.Fatalf("unmarshal quoted: %v %d", err, m.Cents)
	}
	if err := json.Unmarshal([]byte(`-3`), &m); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
