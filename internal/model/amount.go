package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// AmountSpec is either an explicit quantity or a request to use the acting
// account's whole balance, resolved at execution time.
type AmountSpec struct {
	value *big.Int
	full  bool
}

// Explicit returns an AmountSpec for a literal quantity. A nil value is zero.
func Explicit(value *big.Int) AmountSpec {
	if value == nil {
		return AmountSpec{value: new(big.Int)}
	}
	return AmountSpec{value: new(big.Int).Set(value)}
}

// FullBalance returns the AmountSpec meaning "entire current balance".
func FullBalance() AmountSpec {
	return AmountSpec{full: true}
}

// IsFullBalance reports whether the spec defers to the live balance.
func (a AmountSpec) IsFullBalance() bool {
	return a.full
}

// Value returns a copy of the explicit quantity, or nil for FullBalance.
func (a AmountSpec) Value() *big.Int {
	if a.full {
		return nil
	}
	if a.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.value)
}

func (a AmountSpec) String() string {
	if a.full {
		return "max"
	}
	if a.value == nil {
		return "0"
	}
	return a.value.String()
}

// ParseAmountSpec parses a spell argument. "max" and the uint256 maximum both
// mean FullBalance; decimal and 0x-prefixed hex quantities are explicit.
func ParseAmountSpec(input string) (AmountSpec, error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "max") {
		return FullBalance(), nil
	}
	value, err := ParseQuantity(input)
	if err != nil {
		return AmountSpec{}, err
	}
	if value.Cmp(math.MaxBig256) == 0 {
		return FullBalance(), nil
	}
	return Explicit(value), nil
}

// ParseQuantity parses a non-negative uint256 in decimal or 0x hex.
func ParseQuantity(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty quantity")
	}

	var value *big.Int
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		decoded, err := hexutil.DecodeBig(strings.ToLower(input))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", input, err)
		}
		value = decoded
	} else {
		parsed, ok := new(big.Int).SetString(input, 10)
		if !ok {
			return nil, fmt.Errorf("invalid quantity %q", input)
		}
		value = parsed
	}

	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative quantity %q", input)
	}
	if value.BitLen() > 256 {
		return nil, fmt.Errorf("quantity %q exceeds uint256", input)
	}
	return value, nil
}
