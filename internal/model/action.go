package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ActionKind names one of the connector operations.
type ActionKind string

const (
	ActionAcquirePosition   ActionKind = "acquire_position"
	ActionLiquidatePosition ActionKind = "liquidate_position"
	ActionAcquireBond       ActionKind = "acquire_bond"
	ActionRedeemBond        ActionKind = "redeem_bond"
)

// ActionRequest carries the positional arguments of a single action.
// For ActionRedeemBond, Amount holds the bond id.
type ActionRequest struct {
	Asset     common.Address
	Pool      common.Address
	Amount    AmountSpec
	MinOutput *big.Int
	Deadline  uint64
	// TermDays is the bond term forwarded to the pool on ActionAcquireBond.
	TermDays  uint16
	ReadSlot  uint64
	WriteSlot uint64
}

// ActionResult is the realized outcome of an action.
type ActionResult struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	BondID    *big.Int
}
