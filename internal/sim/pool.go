package sim

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"yieldConnector/internal/connector"
)

const (
	bpsDenominator = 10_000
	secondsPerDay  = 86_400
	daysPerYear    = 365
)

var rateScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// PoolConfig parameterizes a simulated yield pool.
type PoolConfig struct {
	Underlying common.Address
	// Provider holds the pool's underlying and pulls deposits. Zero means the
	// pool address itself.
	Provider common.Address
	// ExchangeRate is underlying per position unit, scaled by 1e18.
	ExchangeRate *big.Int
	BuyFeeBps    uint64
	SellFeeBps   uint64
	// BondRateBps is the annual guaranteed bond rate.
	BondRateBps  uint64
	RedeemFeeBps uint64
}

type bond struct {
	owner     common.Address
	principal *big.Int
	gain      *big.Int
	maturesAt uint64
}

type poolState struct {
	cfg        PoolConfig
	nextBondID uint64
	bonds      map[uint64]bond
}

func (p *poolState) clone() *poolState {
	cfg := p.cfg
	cfg.ExchangeRate = new(big.Int).Set(p.cfg.ExchangeRate)
	out := &poolState{
		cfg:        cfg,
		nextBondID: p.nextBondID,
		bonds:      make(map[uint64]bond, len(p.bonds)),
	}
	for id, b := range p.bonds {
		out.bonds[id] = bond{
			owner:     b.owner,
			principal: new(big.Int).Set(b.principal),
			gain:      new(big.Int).Set(b.gain),
			maturesAt: b.maturesAt,
		}
	}
	return out
}

// AddPool registers a pool at address and seeds its reserve of underlying.
func (c *Chain) AddPool(address common.Address, cfg PoolConfig, reserve *big.Int) {
	if cfg.Provider == (common.Address{}) {
		cfg.Provider = address
	}
	if cfg.ExchangeRate == nil || cfg.ExchangeRate.Sign() <= 0 {
		cfg.ExchangeRate = new(big.Int).Set(rateScale)
	} else {
		cfg.ExchangeRate = new(big.Int).Set(cfg.ExchangeRate)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur.pools[address] = &poolState{cfg: cfg, bonds: make(map[uint64]bond)}
	if reserve != nil && reserve.Sign() > 0 {
		c.credit(cfg.Underlying, cfg.Provider, reserve)
	}
}

// SetExchangeRate changes the pool's underlying-per-unit rate.
func (c *Chain) SetExchangeRate(address common.Address, rate *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, err := c.pool(address)
	if err != nil {
		return err
	}
	pool.cfg.ExchangeRate = new(big.Int).Set(rate)
	return nil
}

// Spender implements connector.YieldPool.
func (c *Chain) Spender(_ context.Context, address common.Address) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, err := c.pool(address)
	if err != nil {
		return common.Address{}, err
	}
	return pool.cfg.Provider, nil
}

// BuyTokens implements connector.YieldPool. Bounds are left to the caller.
func (c *Chain) BuyTokens(_ context.Context, account common.Address, address common.Address, underlying *big.Int, _ *big.Int, _ uint64) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, err := c.pool(address)
	if err != nil {
		return nil, err
	}
	if err := c.transferFrom(pool.cfg.Underlying, pool.cfg.Provider, account, pool.cfg.Provider, underlying); err != nil {
		return nil, fmt.Errorf("buy tokens: %w", err)
	}

	net := subFee(underlying, pool.cfg.BuyFeeBps)
	units := new(big.Int).Mul(net, rateScale)
	units.Quo(units, pool.cfg.ExchangeRate)
	c.credit(address, account, units)
	return units, nil
}

// SellTokens implements connector.YieldPool.
func (c *Chain) SellTokens(_ context.Context, account common.Address, address common.Address, tokens *big.Int, _ *big.Int, _ uint64) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, err := c.pool(address)
	if err != nil {
		return nil, err
	}

	gross := new(big.Int).Mul(tokens, pool.cfg.ExchangeRate)
	gross.Quo(gross, rateScale)
	out := subFee(gross, pool.cfg.SellFeeBps)
	if c.balance(pool.cfg.Underlying, pool.cfg.Provider).Cmp(out) < 0 {
		return nil, fmt.Errorf("sell tokens: insufficient pool liquidity")
	}

	// burn: the pool pulls the units to itself, then they leave supply
	if err := c.transferFrom(address, address, account, address, tokens); err != nil {
		return nil, fmt.Errorf("sell tokens: %w", err)
	}
	if err := c.debit(address, address, tokens); err != nil {
		return nil, fmt.Errorf("sell tokens: %w", err)
	}
	if err := c.debit(pool.cfg.Underlying, pool.cfg.Provider, out); err != nil {
		return nil, fmt.Errorf("sell tokens: %w", err)
	}
	c.credit(pool.cfg.Underlying, account, out)
	return out, nil
}

// BuyBond implements connector.YieldPool.
func (c *Chain) BuyBond(_ context.Context, account common.Address, address common.Address, principal *big.Int, _ *big.Int, _ uint64, forDays uint16) (connector.BondPurchase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, err := c.pool(address)
	if err != nil {
		return connector.BondPurchase{}, err
	}
	if forDays == 0 {
		return connector.BondPurchase{}, fmt.Errorf("buy bond: zero term")
	}
	if err := c.transferFrom(pool.cfg.Underlying, pool.cfg.Provider, account, pool.cfg.Provider, principal); err != nil {
		return connector.BondPurchase{}, fmt.Errorf("buy bond: %w", err)
	}

	gain := new(big.Int).Mul(principal, new(big.Int).SetUint64(pool.cfg.BondRateBps*uint64(forDays)))
	gain.Quo(gain, big.NewInt(bpsDenominator*daysPerYear))

	pool.nextBondID++
	id := pool.nextBondID
	pool.bonds[id] = bond{
		owner:     account,
		principal: new(big.Int).Set(principal),
		gain:      gain,
		maturesAt: c.now + uint64(forDays)*secondsPerDay,
	}

	return connector.BondPurchase{
		BondID: new(big.Int).SetUint64(id),
		Units:  new(big.Int).Add(principal, gain),
	}, nil
}

// RedeemBond implements connector.YieldPool.
func (c *Chain) RedeemBond(_ context.Context, account common.Address, address common.Address, bondID *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pool, err := c.pool(address)
	if err != nil {
		return nil, err
	}
	if !bondID.IsUint64() {
		return nil, fmt.Errorf("redeem bond: unknown bond %s", bondID)
	}
	id := bondID.Uint64()
	b, ok := pool.bonds[id]
	if !ok {
		return nil, fmt.Errorf("redeem bond: unknown bond %s", bondID)
	}
	if b.owner != account {
		return nil, fmt.Errorf("redeem bond: bond %s not owned by %s", bondID, account.Hex())
	}
	if c.now < b.maturesAt {
		return nil, fmt.Errorf("redeem bond: bond %s matures at %d", bondID, b.maturesAt)
	}

	fee := new(big.Int).Mul(b.gain, new(big.Int).SetUint64(pool.cfg.RedeemFeeBps))
	fee.Quo(fee, big.NewInt(bpsDenominator))
	payout := new(big.Int).Add(b.principal, b.gain)
	payout.Sub(payout, fee)

	if err := c.debit(pool.cfg.Underlying, pool.cfg.Provider, payout); err != nil {
		return nil, fmt.Errorf("redeem bond: %w", err)
	}
	c.credit(pool.cfg.Underlying, account, payout)
	delete(pool.bonds, id)
	return payout, nil
}

func (c *Chain) pool(address common.Address) (*poolState, error) {
	pool, ok := c.cur.pools[address]
	if !ok {
		return nil, fmt.Errorf("unknown pool %s", address.Hex())
	}
	return pool, nil
}

func subFee(amount *big.Int, feeBps uint64) *big.Int {
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
	fee.Quo(fee, big.NewInt(bpsDenominator))
	return new(big.Int).Sub(amount, fee)
}
