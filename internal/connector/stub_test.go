package connector

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testAccount = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testAsset   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	testPool    = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	testSpender = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

type stubLedger struct {
	balance    *big.Int
	balanceErr error
	allowance  *big.Int
	approveErr error
	approvals  []*big.Int
}

func (s *stubLedger) BalanceOf(context.Context, common.Address, common.Address) (*big.Int, error) {
	if s.balanceErr != nil {
		return nil, s.balanceErr
	}
	return s.balance, nil
}

func (s *stubLedger) Allowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	if s.allowance == nil {
		return new(big.Int), nil
	}
	return s.allowance, nil
}

func (s *stubLedger) Approve(_ context.Context, _ common.Address, _ common.Address, _ common.Address, amount *big.Int) error {
	if s.approveErr != nil {
		return s.approveErr
	}
	s.approvals = append(s.approvals, new(big.Int).Set(amount))
	s.allowance = new(big.Int).Set(amount)
	return nil
}

type stubClock struct {
	now uint64
	err error
}

func (c stubClock) Now(context.Context) (uint64, error) {
	return c.now, c.err
}

// stubPool returns fixed outputs. A nil output with no error models a pool
// that answered without an amount.
type stubPool struct {
	out      *big.Int
	purchase BondPurchase
	err      error
	calls    int
}

func (p *stubPool) Spender(context.Context, common.Address) (common.Address, error) {
	return testSpender, nil
}

func (p *stubPool) BuyTokens(context.Context, common.Address, common.Address, *big.Int, *big.Int, uint64) (*big.Int, error) {
	p.calls++
	return p.out, p.err
}

func (p *stubPool) SellTokens(context.Context, common.Address, common.Address, *big.Int, *big.Int, uint64) (*big.Int, error) {
	p.calls++
	return p.out, p.err
}

func (p *stubPool) BuyBond(context.Context, common.Address, common.Address, *big.Int, *big.Int, uint64, uint16) (BondPurchase, error) {
	p.calls++
	return p.purchase, p.err
}

func (p *stubPool) RedeemBond(context.Context, common.Address, common.Address, *big.Int) (*big.Int, error) {
	p.calls++
	return p.out, p.err
}

var errBackend = errors.New("backend down")
