package connector

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"yieldConnector/internal/model"
)

func TestResolveExplicit(t *testing.T) {
	resolver := Resolver{Ledger: &stubLedger{balance: big.NewInt(100)}}
	amount, err := resolver.Resolve(context.Background(), NewMemory(), model.Explicit(big.NewInt(42)), 0, testAsset, testAccount)
	require.NoError(t, err)
	require.Equal(t, int64(42), amount.Int64())
}

func TestResolveFullBalanceReadsLiveBalance(t *testing.T) {
	ledger := &stubLedger{balance: big.NewInt(100)}
	resolver := Resolver{Ledger: ledger}
	spec := model.FullBalance()

	// balance moves between request construction and resolution
	ledger.balance = big.NewInt(77)
	amount, err := resolver.Resolve(context.Background(), NewMemory(), spec, 0, testAsset, testAccount)
	require.NoError(t, err)
	require.Equal(t, int64(77), amount.Int64())
}

func TestResolveChainedValueWins(t *testing.T) {
	mem := NewMemory()
	mem.Set(5, big.NewInt(13))
	resolver := Resolver{Ledger: &stubLedger{balance: big.NewInt(100)}}

	amount, err := resolver.Resolve(context.Background(), mem, model.Explicit(big.NewInt(99)), 5, testAsset, testAccount)
	require.NoError(t, err)
	require.Equal(t, int64(13), amount.Int64())

	amount, err = resolver.Resolve(context.Background(), mem, model.FullBalance(), 5, testAsset, testAccount)
	require.NoError(t, err)
	require.Equal(t, int64(13), amount.Int64())
}

func TestResolveErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Resolver{Ledger: &stubLedger{}}.Resolve(ctx, NewMemory(), model.Explicit(big.NewInt(1)), 9, testAsset, testAccount)
	require.Equal(t, "NoChainedValue", KindOf(err))

	_, err = Resolver{Ledger: &stubLedger{}}.Resolve(ctx, NewMemory(), model.Explicit(big.NewInt(0)), 0, testAsset, testAccount)
	require.Equal(t, "InvalidAmount", KindOf(err))

	_, err = Resolver{Ledger: &stubLedger{balance: big.NewInt(0)}}.Resolve(ctx, NewMemory(), model.FullBalance(), 0, testAsset, testAccount)
	require.Equal(t, "InvalidAmount", KindOf(err))

	_, err = Resolver{Ledger: &stubLedger{balanceErr: errBackend}}.Resolve(ctx, NewMemory(), model.FullBalance(), 0, testAsset, testAccount)
	require.Equal(t, "AssetLedgerError", KindOf(err))
	require.True(t, errors.Is(err, errBackend))

	_, err = Resolver{Ledger: &stubLedger{}}.Resolve(ctx, NewMemory(), model.FullBalance(), 0, testAsset, testAccount)
	require.Equal(t, "AssetLedgerError", KindOf(err))

	mem := NewMemory()
	mem.Set(2, big.NewInt(0))
	_, err = Resolver{Ledger: &stubLedger{}}.Resolve(ctx, mem, model.Explicit(big.NewInt(5)), 2, testAsset, testAccount)
	require.Equal(t, "InvalidAmount", KindOf(err))
}

func TestResolveBondID(t *testing.T) {
	resolver := Resolver{}

	id, err := resolver.ResolveBondID(NewMemory(), model.Explicit(big.NewInt(4)), 0)
	require.NoError(t, err)
	require.Equal(t, int64(4), id.Int64())

	_, err = resolver.ResolveBondID(NewMemory(), model.FullBalance(), 0)
	require.Equal(t, "InvalidAmount", KindOf(err))

	mem := NewMemory()
	mem.Set(1, big.NewInt(8))
	id, err = resolver.ResolveBondID(mem, model.FullBalance(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(8), id.Int64())

	_, err = resolver.ResolveBondID(NewMemory(), model.Explicit(big.NewInt(1)), 3)
	require.Equal(t, "NoChainedValue", KindOf(err))
}

func TestEnsureAllowance(t *testing.T) {
	ctx := context.Background()
	ledger := &stubLedger{}
	approver := Approver{Ledger: ledger}

	require.NoError(t, approver.EnsureAllowance(ctx, testAsset, testAccount, testSpender, big.NewInt(10)))
	require.Len(t, ledger.approvals, 1)
	require.Equal(t, int64(10), ledger.approvals[0].Int64())

	// sufficient allowance: no second approval
	require.NoError(t, approver.EnsureAllowance(ctx, testAsset, testAccount, testSpender, big.NewInt(10)))
	require.NoError(t, approver.EnsureAllowance(ctx, testAsset, testAccount, testSpender, big.NewInt(3)))
	require.Len(t, ledger.approvals, 1)

	// raised to exactly the new amount
	require.NoError(t, approver.EnsureAllowance(ctx, testAsset, testAccount, testSpender, big.NewInt(25)))
	require.Len(t, ledger.approvals, 2)
	require.Equal(t, int64(25), ledger.approvals[1].Int64())

	ledger.approveErr = errBackend
	err := approver.EnsureAllowance(ctx, testAsset, testAccount, testSpender, big.NewInt(30))
	require.Equal(t, "AssetLedgerError", KindOf(err))
}
