package connector

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Approver raises allowances just enough for the next pool call.
type Approver struct {
	Ledger AssetLedger
}

// EnsureAllowance approves exactly amount when the current allowance is
// lower. A sufficient allowance is left untouched and no call is issued.
func (a Approver) EnsureAllowance(ctx context.Context, asset common.Address, owner common.Address, spender common.Address, amount *big.Int) error {
	current, err := a.Ledger.Allowance(ctx, asset, owner, spender)
	if err != nil {
		return fmt.Errorf("%w: allowance of %s for %s: %w", ErrAssetLedger, asset.Hex(), spender.Hex(), err)
	}
	if current == nil {
		return fmt.Errorf("%w: allowance of %s for %s: no value returned", ErrAssetLedger, asset.Hex(), spender.Hex())
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}
	if err := a.Ledger.Approve(ctx, asset, owner, spender, amount); err != nil {
		return fmt.Errorf("%w: approve %s for %s: %w", ErrAssetLedger, asset.Hex(), spender.Hex(), err)
	}
	return nil
}
