package connector_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"yieldConnector/internal/connector"
	"yieldConnector/internal/model"
	"yieldConnector/internal/sim"
)

const start = 1_700_000_000

var (
	account  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	usdc     = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	pool     = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	provider = common.HexToAddress("0x00000000000000000000000000000000000000d2")
)

func newFixture(t *testing.T, buyFee, sellFee uint64) (*sim.Chain, *connector.Connector) {
	t.Helper()
	chain := sim.NewChain(start)
	chain.Mint(usdc, account, big.NewInt(10_000_000))
	chain.AddPool(pool, sim.PoolConfig{
		Underlying:   usdc,
		Provider:     provider,
		BuyFeeBps:    buyFee,
		SellFeeBps:   sellFee,
		BondRateBps:  1000,
		RedeemFeeBps: 1000,
	}, big.NewInt(1_000_000_000))
	return chain, connector.New(chain, chain, chain, nil)
}

func balance(t *testing.T, chain *sim.Chain, asset common.Address) int64 {
	t.Helper()
	value, err := chain.BalanceOf(context.Background(), asset, account)
	require.NoError(t, err)
	return value.Int64()
}

func TestAcquireThenLiquidateFullPosition(t *testing.T) {
	ctx := context.Background()
	chain, conn := newFixture(t, 50, 50)
	mem := connector.NewMemory()

	acquired, err := conn.AcquirePosition(ctx, mem, account, model.ActionRequest{
		Asset:     usdc,
		Pool:      pool,
		Amount:    model.Explicit(big.NewInt(1_000_000)),
		MinOutput: big.NewInt(0),
		Deadline:  start + 3600,
		WriteSlot: 1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(995_000), acquired.Result.AmountOut.Int64())
	require.Equal(t, int64(9_000_000), balance(t, chain, usdc))

	liquidated, err := conn.LiquidatePosition(ctx, mem, account, model.ActionRequest{
		Asset:     usdc,
		Pool:      pool,
		Amount:    model.FullBalance(),
		MinOutput: big.NewInt(0),
		Deadline:  start + 3600,
	})
	require.NoError(t, err)
	require.Equal(t, int64(995_000), liquidated.Result.AmountIn.Int64())
	require.LessOrEqual(t, liquidated.Result.AmountOut.Int64(), int64(1_000_000))
	require.Zero(t, balance(t, chain, pool))

	leftUnderlying, err := chain.Allowance(ctx, usdc, account, provider)
	require.NoError(t, err)
	require.Zero(t, leftUnderlying.Sign())
	leftUnits, err := chain.Allowance(ctx, pool, account, pool)
	require.NoError(t, err)
	require.Zero(t, leftUnits.Sign())
}

func TestNoRedundantApproval(t *testing.T) {
	ctx := context.Background()
	chain, conn := newFixture(t, 0, 0)
	require.NoError(t, chain.Approve(ctx, usdc, account, provider, big.NewInt(5_000_000)))
	before := chain.ApproveCalls()

	_, err := conn.AcquirePosition(ctx, connector.NewMemory(), account, model.ActionRequest{
		Asset:    usdc,
		Pool:     pool,
		Amount:   model.Explicit(big.NewInt(1_000_000)),
		Deadline: start + 10,
	})
	require.NoError(t, err)
	require.Equal(t, before, chain.ApproveCalls())

	left, err := chain.Allowance(ctx, usdc, account, provider)
	require.NoError(t, err)
	require.Equal(t, int64(4_000_000), left.Int64())
}

func TestChainedAmountIsUsedExactly(t *testing.T) {
	ctx := context.Background()
	chain, conn := newFixture(t, 100, 0)
	mem := connector.NewMemory()

	first, err := conn.AcquirePosition(ctx, mem, account, model.ActionRequest{
		Asset:     usdc,
		Pool:      pool,
		Amount:    model.Explicit(big.NewInt(2_000_000)),
		Deadline:  start,
		WriteSlot: 9,
	})
	require.NoError(t, err)

	// top up the position so the chained value differs from the full balance
	chain.Mint(pool, account, big.NewInt(123))

	second, err := conn.LiquidatePosition(ctx, mem, account, model.ActionRequest{
		Asset:    usdc,
		Pool:     pool,
		Amount:   model.Explicit(big.NewInt(1)),
		Deadline: start,
		ReadSlot: 9,
	})
	require.NoError(t, err)
	require.Equal(t, first.Result.AmountOut.String(), second.Result.AmountIn.String())
	require.Equal(t, int64(123), balance(t, chain, pool))
}

func TestBondLifecycle(t *testing.T) {
	ctx := context.Background()
	chain, conn := newFixture(t, 0, 0)
	mem := connector.NewMemory()

	bought, err := conn.AcquireBond(ctx, mem, account, model.ActionRequest{
		Asset:     usdc,
		Pool:      pool,
		Amount:    model.Explicit(big.NewInt(3_650_000)),
		MinOutput: big.NewInt(3_650_000),
		Deadline:  start + 60,
		TermDays:  10,
	})
	require.NoError(t, err)
	// 10% a year for 10 days on 3.65M is 10k
	require.Equal(t, int64(3_660_000), bought.Result.AmountOut.Int64())
	require.Equal(t, int64(1), bought.Result.BondID.Int64())
	require.Equal(t, "1", bought.Record.BondID)

	_, err = conn.RedeemBond(ctx, mem, account, model.ActionRequest{
		Asset:    usdc,
		Pool:     pool,
		Amount:   model.Explicit(bought.Result.BondID),
		Deadline: start + 60,
	})
	require.Equal(t, "ExternalProtocolError", connector.KindOf(err), "bond not matured")

	chain.Advance(10 * 86_400)
	approvals := chain.ApproveCalls()
	redeemed, err := conn.RedeemBond(ctx, mem, account, model.ActionRequest{
		Asset:    usdc,
		Pool:     pool,
		Amount:   model.Explicit(bought.Result.BondID),
		Deadline: start + 11*86_400,
	})
	require.NoError(t, err)
	// 10% fee on the 10k gain
	require.Equal(t, int64(3_659_000), redeemed.Result.AmountOut.Int64())
	require.Equal(t, approvals, chain.ApproveCalls())
	require.Equal(t, int64(10_000_000-3_650_000+3_659_000), balance(t, chain, usdc))
}

func TestBondMinOutputAboveUnits(t *testing.T) {
	_, conn := newFixture(t, 0, 0)
	_, err := conn.AcquireBond(context.Background(), connector.NewMemory(), account, model.ActionRequest{
		Asset:     usdc,
		Pool:      pool,
		Amount:    model.Explicit(big.NewInt(3_650_000)),
		MinOutput: big.NewInt(3_660_001),
		Deadline:  start + 60,
		TermDays:  10,
	})
	require.Equal(t, "SlippageExceeded", connector.KindOf(err))
}

func TestRedeemFullBalanceSentinelRejected(t *testing.T) {
	_, conn := newFixture(t, 0, 0)
	_, err := conn.RedeemBond(context.Background(), connector.NewMemory(), account, model.ActionRequest{
		Asset:    usdc,
		Pool:     pool,
		Amount:   model.FullBalance(),
		Deadline: start + 60,
	})
	require.Equal(t, "InvalidAmount", connector.KindOf(err))
}
