package model

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
)

func TestParseAmountSpecSentinel(t *testing.T) {
	for _, input := range []string{"max", "MAX", " max ", math.MaxBig256.String(), "0x" + math.MaxBig256.Text(16)} {
		spec, err := ParseAmountSpec(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if !spec.IsFullBalance() {
			t.Fatalf("%q should parse to full balance", input)
		}
		if spec.Value() != nil {
			t.Fatalf("full balance should carry no value")
		}
	}
}

func TestParseAmountSpecExplicit(t *testing.T) {
	almostMax := new(big.Int).Sub(math.MaxBig256, big.NewInt(1))

	cases := map[string]*big.Int{
		"0":                   big.NewInt(0),
		"1000000000000000000": big.NewInt(1_000_000_000_000_000_000),
		"0x10":                big.NewInt(16),
		almostMax.String():    almostMax,
	}
	for input, want := range cases {
		spec, err := ParseAmountSpec(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if spec.IsFullBalance() {
			t.Fatalf("%q should be explicit", input)
		}
		if spec.Value().Cmp(want) != 0 {
			t.Fatalf("value mismatch for %q: %s", input, spec.Value())
		}
	}
}

func TestParseAmountSpecRejects(t *testing.T) {
	tooLarge := new(big.Int).Lsh(big.NewInt(1), 256)
	for _, input := range []string{"", "-1", "abc", "1.5", tooLarge.String()} {
		if _, err := ParseAmountSpec(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestExplicitCopiesValue(t *testing.T) {
	value := big.NewInt(5)
	spec := Explicit(value)
	value.SetInt64(9)

	if spec.Value().Int64() != 5 {
		t.Fatalf("explicit spec should not alias its input")
	}
	spec.Value().SetInt64(11)
	if spec.Value().Int64() != 5 {
		t.Fatalf("Value should return a copy")
	}
	if Explicit(nil).Value().Sign() != 0 {
		t.Fatalf("nil explicit should be zero")
	}
}
