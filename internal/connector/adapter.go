package connector

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolAdapter crosses the call boundary to the yield pool. It does not
// validate results; failures come back wrapped in ErrExternalProtocol and a
// missing amount is a failure, never zero.
type PoolAdapter struct {
	Pool YieldPool
}

func (p PoolAdapter) Spender(ctx context.Context, pool common.Address) (common.Address, error) {
	spender, err := p.Pool.Spender(ctx, pool)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: spender of %s: %w", ErrExternalProtocol, pool.Hex(), err)
	}
	return spender, nil
}

func (p PoolAdapter) AcquirePosition(ctx context.Context, account common.Address, pool common.Address, amount *big.Int, minOutput *big.Int, deadline uint64) (*big.Int, error) {
	units, err := p.Pool.BuyTokens(ctx, account, pool, amount, minOutput, deadline)
	return protocolAmount("buy tokens", pool, units, err)
}

func (p PoolAdapter) LiquidatePosition(ctx context.Context, account common.Address, pool common.Address, amount *big.Int, minOutput *big.Int, deadline uint64) (*big.Int, error) {
	received, err := p.Pool.SellTokens(ctx, account, pool, amount, minOutput, deadline)
	return protocolAmount("sell tokens", pool, received, err)
}

func (p PoolAdapter) AcquireBond(ctx context.Context, account common.Address, pool common.Address, amount *big.Int, minGain *big.Int, deadline uint64, forDays uint16) (BondPurchase, error) {
	purchase, err := p.Pool.BuyBond(ctx, account, pool, amount, minGain, deadline, forDays)
	if err != nil {
		return BondPurchase{}, fmt.Errorf("%w: buy bond %s: %w", ErrExternalProtocol, pool.Hex(), err)
	}
	if purchase.BondID == nil || purchase.Units == nil {
		return BondPurchase{}, fmt.Errorf("%w: buy bond %s: incomplete result", ErrExternalProtocol, pool.Hex())
	}
	return BondPurchase{
		BondID: new(big.Int).Set(purchase.BondID),
		Units:  new(big.Int).Set(purchase.Units),
	}, nil
}

func (p PoolAdapter) RedeemBond(ctx context.Context, account common.Address, pool common.Address, bondID *big.Int) (*big.Int, error) {
	received, err := p.Pool.RedeemBond(ctx, account, pool, bondID)
	return protocolAmount("redeem bond", pool, received, err)
}

func protocolAmount(op string, pool common.Address, value *big.Int, err error) (*big.Int, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrExternalProtocol, op, pool.Hex(), err)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: %s %s: no amount returned", ErrExternalProtocol, op, pool.Hex())
	}
	return new(big.Int).Set(value), nil
}
