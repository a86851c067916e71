package smartyield

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testPool  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testBuyer = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestDecoderBuyTokens(t *testing.T) {
	poolABI, err := SmartYieldABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	event := poolABI.Events["BuyTokens"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(1000), big.NewInt(950), big.NewInt(5))
	if err != nil {
		t.Fatalf("pack BuyTokens: %v", err)
	}
	log := types.Log{
		Address: testPool,
		Topics:  []common.Hash{event.ID, common.BytesToHash(testBuyer.Bytes())},
		Data:    data,
	}

	decoded, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Name != "BuyTokens" || decoded.Pool != testPool || decoded.Account != testBuyer {
		t.Fatalf("header mismatch: %+v", decoded)
	}
	if decoded.AmountIn.Int64() != 1000 || decoded.AmountOut.Int64() != 950 || decoded.Fee.Int64() != 5 {
		t.Fatalf("amounts mismatch: %+v", decoded)
	}
	if decoded.BondID != nil {
		t.Fatalf("unexpected bond id %s", decoded.BondID)
	}
}

func TestDecoderSellTokens(t *testing.T) {
	poolABI, err := SmartYieldABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	event := poolABI.Events["SellTokens"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(950), big.NewInt(990), big.NewInt(3))
	if err != nil {
		t.Fatalf("pack SellTokens: %v", err)
	}
	decoded, err := decoder.Decode(types.Log{
		Address: testPool,
		Topics:  []common.Hash{event.ID, common.BytesToHash(testBuyer.Bytes())},
		Data:    data,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.AmountIn.Int64() != 950 || decoded.AmountOut.Int64() != 990 || decoded.Fee.Int64() != 3 {
		t.Fatalf("amounts mismatch: %+v", decoded)
	}
}

func TestDecoderBuySeniorBond(t *testing.T) {
	poolABI, err := SmartYieldABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	event := poolABI.Events["BuySeniorBond"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(1000), big.NewInt(27), big.NewInt(30))
	if err != nil {
		t.Fatalf("pack BuySeniorBond: %v", err)
	}
	decoded, err := decoder.Decode(types.Log{
		Address: testPool,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(testBuyer.Bytes()),
			common.BigToHash(big.NewInt(7)),
		},
		Data: data,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.BondID.Int64() != 7 || decoded.TermDays != 30 {
		t.Fatalf("bond mismatch: %+v", decoded)
	}
	if decoded.AmountIn.Int64() != 1000 || decoded.AmountOut.Int64() != 1027 {
		t.Fatalf("amounts mismatch: %+v", decoded)
	}
}

func TestDecoderRedeemSeniorBond(t *testing.T) {
	poolABI, err := SmartYieldABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	event := poolABI.Events["RedeemSeniorBond"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(2))
	if err != nil {
		t.Fatalf("pack RedeemSeniorBond: %v", err)
	}
	decoded, err := decoder.Decode(types.Log{
		Address: testPool,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(testBuyer.Bytes()),
			common.BigToHash(big.NewInt(7)),
		},
		Data: data,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Account != testBuyer || decoded.BondID.Int64() != 7 || decoded.Fee.Int64() != 2 {
		t.Fatalf("redeem mismatch: %+v", decoded)
	}
	if decoded.AmountOut != nil {
		t.Fatalf("unexpected amount out")
	}
}

func TestDecoderRejectsUnknownTopic(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if _, err := decoder.Decode(types.Log{Topics: []common.Hash{common.HexToHash("0x01")}}); err == nil {
		t.Fatalf("expected error for unknown topic")
	}
	if _, err := decoder.Decode(types.Log{}); err == nil {
		t.Fatalf("expected error for missing topics")
	}
}

func TestDecoderFindEvent(t *testing.T) {
	poolABI, err := SmartYieldABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	event := poolABI.Events["BuyTokens"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(10), big.NewInt(9), big.NewInt(1))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	receipt := &types.Receipt{Logs: []*types.Log{
		{Address: other, Topics: []common.Hash{event.ID, common.BytesToHash(testBuyer.Bytes())}, Data: data},
		{Address: testPool, Topics: []common.Hash{event.ID, common.BytesToHash(testBuyer.Bytes())}, Data: data},
	}}

	found, err := decoder.FindEvent(receipt, testPool, "BuyTokens")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Pool != testPool || found.AmountOut.Int64() != 9 {
		t.Fatalf("found mismatch: %+v", found)
	}
	if _, err := decoder.FindEvent(receipt, testPool, "SellTokens"); err == nil {
		t.Fatalf("expected missing event error")
	}
}
