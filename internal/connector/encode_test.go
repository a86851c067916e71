package connector

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"yieldConnector/internal/model"
)

func TestEventSignature(t *testing.T) {
	require.Equal(t,
		"LogAcquirePosition(address,address,address,uint256,uint256,uint256,uint256)",
		EventSignature(model.ActionAcquirePosition))
	require.Equal(t,
		"LogRedeemBond(address,address,address,uint256,uint256,uint256,uint256,uint256)",
		EventSignature(model.ActionRedeemBond))
}

func TestEncodePositionRecord(t *testing.T) {
	req := model.ActionRequest{
		Asset:     testAsset,
		Pool:      testPool,
		Amount:    model.Explicit(big.NewInt(1)),
		MinOutput: big.NewInt(0),
		Deadline:  5000,
		ReadSlot:  0,
		WriteSlot: 3,
	}
	result := model.ActionResult{AmountIn: big.NewInt(1_000_000), AmountOut: big.NewInt(990_000)}

	record := Encoder{}.Encode(model.ActionLiquidatePosition, testAccount, req, result, 4000)
	require.Equal(t, model.ActionLiquidatePosition, record.Kind)
	require.Equal(t, "1000000", record.AmountIn)
	require.Equal(t, "990000", record.AmountOut)
	require.Equal(t, "0", record.MinOutput)
	require.Equal(t, uint64(4000), record.ExecutedAt)
	require.Empty(t, record.BondID)

	values, err := DecodeEventParam(model.ActionLiquidatePosition, record.EventParam)
	require.NoError(t, err)
	require.Equal(t, testAccount, values["account"].(common.Address))
	require.Equal(t, testPool, values["pool"].(common.Address))
	require.Equal(t, int64(990_000), values["amountOut"].(*big.Int).Int64())
	require.Equal(t, int64(3), values["setId"].(*big.Int).Int64())
}

func TestEncodeBondRecord(t *testing.T) {
	req := model.ActionRequest{
		Asset:     testAsset,
		Pool:      testPool,
		Amount:    model.Explicit(big.NewInt(500)),
		Deadline:  5000,
		TermDays:  30,
		WriteSlot: 1,
	}
	result := model.ActionResult{AmountIn: big.NewInt(500), AmountOut: big.NewInt(502), BondID: big.NewInt(6)}

	record := Encoder{}.Encode(model.ActionAcquireBond, testAccount, req, result, 4000)
	require.Equal(t, "6", record.BondID)
	require.Equal(t, uint16(30), record.TermDays)

	values, err := DecodeEventParam(model.ActionAcquireBond, record.EventParam)
	require.NoError(t, err)
	require.Equal(t, int64(6), values["bondId"].(*big.Int).Int64())
	require.Equal(t, int64(502), values["amountOut"].(*big.Int).Int64())

	_, err = DecodeEventParam(model.ActionAcquireBond, "0xzz")
	require.Error(t, err)
}
