package connector

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetLedger is the fungible asset ledger the acting account holds funds in.
type AssetLedger interface {
	BalanceOf(ctx context.Context, asset common.Address, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, asset common.Address, owner common.Address, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, asset common.Address, owner common.Address, spender common.Address, amount *big.Int) error
}

// YieldPool is the external yield pool. Position units are the pool's own
// token, so the pool address doubles as the position token address.
type YieldPool interface {
	// Spender returns the address that pulls underlying from the account.
	Spender(ctx context.Context, pool common.Address) (common.Address, error)
	BuyTokens(ctx context.Context, account common.Address, pool common.Address, underlying *big.Int, minTokens *big.Int, deadline uint64) (*big.Int, error)
	SellTokens(ctx context.Context, account common.Address, pool common.Address, tokens *big.Int, minUnderlying *big.Int, deadline uint64) (*big.Int, error)
	BuyBond(ctx context.Context, account common.Address, pool common.Address, principal *big.Int, minGain *big.Int, deadline uint64, forDays uint16) (BondPurchase, error)
	RedeemBond(ctx context.Context, account common.Address, pool common.Address, bondID *big.Int) (*big.Int, error)
}

// BondPurchase is what the pool reports for a bond purchase.
type BondPurchase struct {
	BondID *big.Int
	// Units is principal plus guaranteed gain.
	Units *big.Int
}

// Clock reports execution time in unix seconds.
type Clock interface {
	Now(ctx context.Context) (uint64, error)
}
