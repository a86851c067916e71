package connector

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"yieldConnector/internal/model"
)

var (
	addressType = mustType("address")
	uint256Type = mustType("uint256")

	positionEventArgs = abi.Arguments{
		{Name: "account", Type: addressType},
		{Name: "asset", Type: addressType},
		{Name: "pool", Type: addressType},
		{Name: "amountIn", Type: uint256Type},
		{Name: "amountOut", Type: uint256Type},
		{Name: "getId", Type: uint256Type},
		{Name: "setId", Type: uint256Type},
	}

	bondEventArgs = abi.Arguments{
		{Name: "account", Type: addressType},
		{Name: "asset", Type: addressType},
		{Name: "pool", Type: addressType},
		{Name: "amountIn", Type: uint256Type},
		{Name: "amountOut", Type: uint256Type},
		{Name: "bondId", Type: uint256Type},
		{Name: "getId", Type: uint256Type},
		{Name: "setId", Type: uint256Type},
	}
)

var eventNames = map[model.ActionKind]string{
	model.ActionAcquirePosition:   "LogAcquirePosition",
	model.ActionLiquidatePosition: "LogLiquidatePosition",
	model.ActionAcquireBond:       "LogAcquireBond",
	model.ActionRedeemBond:        "LogRedeemBond",
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(fmt.Sprintf("abi type %s: %v", name, err))
	}
	return t
}

// Encoder builds the observability record for a completed action.
type Encoder struct{}

// EventSignature returns the Solidity-style event signature for kind.
func EventSignature(kind model.ActionKind) string {
	args := eventArgs(kind)
	types := make([]string, 0, len(args))
	for _, arg := range args {
		types = append(types, arg.Type.String())
	}
	return fmt.Sprintf("%s(%s)", eventNames[kind], strings.Join(types, ","))
}

// Encode packages an action outcome. Inputs are validated by earlier stages,
// so a packing failure is a programming error and panics.
func (Encoder) Encode(kind model.ActionKind, account common.Address, req model.ActionRequest, result model.ActionResult, executedAt uint64) model.ActionRecord {
	amountIn := orZero(result.AmountIn)
	amountOut := orZero(result.AmountOut)
	readSlot := new(big.Int).SetUint64(req.ReadSlot)
	writeSlot := new(big.Int).SetUint64(req.WriteSlot)

	var (
		packed []byte
		err    error
	)
	if isBondKind(kind) {
		packed, err = bondEventArgs.Pack(account, req.Asset, req.Pool, amountIn, amountOut, orZero(result.BondID), readSlot, writeSlot)
	} else {
		packed, err = positionEventArgs.Pack(account, req.Asset, req.Pool, amountIn, amountOut, readSlot, writeSlot)
	}
	if err != nil {
		panic(fmt.Sprintf("pack %s event: %v", kind, err))
	}

	record := model.ActionRecord{
		Kind:       kind,
		EventName:  EventSignature(kind),
		Account:    account.Hex(),
		Asset:      req.Asset.Hex(),
		Pool:       req.Pool.Hex(),
		AmountIn:   amountIn.String(),
		AmountOut:  amountOut.String(),
		MinOutput:  orZero(req.MinOutput).String(),
		Deadline:   req.Deadline,
		ReadSlot:   req.ReadSlot,
		WriteSlot:  req.WriteSlot,
		EventParam: hexutil.Encode(packed),
		ExecutedAt: executedAt,
	}
	if result.BondID != nil {
		record.BondID = result.BondID.String()
	}
	if kind == model.ActionAcquireBond {
		record.TermDays = req.TermDays
	}
	return record
}

// DecodeEventParam unpacks an EventParam back into its named values.
func DecodeEventParam(kind model.ActionKind, param string) (map[string]interface{}, error) {
	data, err := hexutil.Decode(param)
	if err != nil {
		return nil, fmt.Errorf("decode event param: %w", err)
	}
	out := make(map[string]interface{})
	if err := eventArgs(kind).UnpackIntoMap(out, data); err != nil {
		return nil, fmt.Errorf("unpack %s event: %w", kind, err)
	}
	return out, nil
}

func eventArgs(kind model.ActionKind) abi.Arguments {
	if isBondKind(kind) {
		return bondEventArgs
	}
	return positionEventArgs
}

func isBondKind(kind model.ActionKind) bool {
	return kind == model.ActionAcquireBond || kind == model.ActionRedeemBond
}

func orZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return value
}
