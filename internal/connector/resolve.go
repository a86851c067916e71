package connector

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"yieldConnector/internal/model"
)

// Resolver turns an AmountSpec into the quantity an action acts on.
type Resolver struct {
	Ledger AssetLedger
}

// Resolve applies, in order: the chained value of readSlot, the live balance
// of token for FullBalance, and the explicit value. A zero result is invalid.
func (r Resolver) Resolve(ctx context.Context, mem *Memory, spec model.AmountSpec, readSlot uint64, token common.Address, account common.Address) (*big.Int, error) {
	var amount *big.Int
	switch {
	case readSlot != 0:
		value, err := mem.Get(readSlot)
		if err != nil {
			return nil, err
		}
		amount = value
	case spec.IsFullBalance():
		balance, err := r.Ledger.BalanceOf(ctx, token, account)
		if err != nil {
			return nil, fmt.Errorf("%w: balance of %s: %w", ErrAssetLedger, token.Hex(), err)
		}
		if balance == nil {
			return nil, fmt.Errorf("%w: balance of %s: no value returned", ErrAssetLedger, token.Hex())
		}
		amount = new(big.Int).Set(balance)
	default:
		amount = spec.Value()
	}

	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: resolved amount is zero", ErrInvalidAmount)
	}
	return amount, nil
}

// ResolveBondID resolves a bond identifier. A bond id has no balance to
// fall back to, so FullBalance is rejected.
func (r Resolver) ResolveBondID(mem *Memory, spec model.AmountSpec, readSlot uint64) (*big.Int, error) {
	if readSlot != 0 {
		value, err := mem.Get(readSlot)
		if err != nil {
			return nil, err
		}
		if value.Sign() <= 0 {
			return nil, fmt.Errorf("%w: bond id is zero", ErrInvalidAmount)
		}
		return value, nil
	}
	if spec.IsFullBalance() {
		return nil, fmt.Errorf("%w: bond id cannot be the full-balance sentinel", ErrInvalidAmount)
	}
	id := spec.Value()
	if id.Sign() <= 0 {
		return nil, fmt.Errorf("%w: bond id is zero", ErrInvalidAmount)
	}
	return id, nil
}
