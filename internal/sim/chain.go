// Package sim is an in-memory asset ledger and yield pool with snapshot
// journaling. It backs the simulate command and behavior tests.
package sim

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"yieldConnector/internal/connector"
)

type allowanceKey struct {
	asset   common.Address
	owner   common.Address
	spender common.Address
}

type state struct {
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int
	pools      map[common.Address]*poolState
}

// Chain is a single-account-set ledger plus any number of pools.
type Chain struct {
	mu        sync.Mutex
	now       uint64
	cur       state
	snapshots map[string]state
	nextSnap  uint64
	approvals int
}

var (
	_ connector.AssetLedger = (*Chain)(nil)
	_ connector.YieldPool   = (*Chain)(nil)
	_ connector.Clock       = (*Chain)(nil)
)

// NewChain returns an empty chain whose clock starts at now.
func NewChain(now uint64) *Chain {
	return &Chain{
		now: now,
		cur: state{
			balances:   make(map[common.Address]map[common.Address]*big.Int),
			allowances: make(map[allowanceKey]*big.Int),
			pools:      make(map[common.Address]*poolState),
		},
		snapshots: make(map[string]state),
	}
}

// Now implements connector.Clock.
func (c *Chain) Now(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now, nil
}

// SetTime moves the clock to ts.
func (c *Chain) SetTime(ts uint64) {
	c.mu.Lock()
	c.now = ts
	c.mu.Unlock()
}

// Advance moves the clock forward by seconds.
func (c *Chain) Advance(seconds uint64) {
	c.mu.Lock()
	c.now += seconds
	c.mu.Unlock()
}

// Mint credits amount of asset to account.
func (c *Chain) Mint(asset common.Address, account common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit(asset, account, amount)
}

// ApproveCalls returns how many Approve calls the ledger has served.
func (c *Chain) ApproveCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.approvals
}

// BalanceOf implements connector.AssetLedger.
func (c *Chain) BalanceOf(_ context.Context, asset common.Address, account common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balance(asset, account)), nil
}

// Allowance implements connector.AssetLedger.
func (c *Chain) Allowance(_ context.Context, asset common.Address, owner common.Address, spender common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value, ok := c.cur.allowances[allowanceKey{asset, owner, spender}]; ok {
		return new(big.Int).Set(value), nil
	}
	return new(big.Int), nil
}

// Approve implements connector.AssetLedger. Like ERC20, it overwrites.
func (c *Chain) Approve(_ context.Context, asset common.Address, owner common.Address, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid approval amount")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.approvals++
	c.cur.allowances[allowanceKey{asset, owner, spender}] = new(big.Int).Set(amount)
	return nil
}

// Snapshot records the current ledger and pool state.
func (c *Chain) Snapshot(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSnap++
	id := strconv.FormatUint(c.nextSnap, 10)
	c.snapshots[id] = c.cur.clone()
	return id, nil
}

// Revert restores the state captured by id and drops it together with every
// later snapshot.
func (c *Chain) Revert(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	saved, ok := c.snapshots[id]
	if !ok {
		return fmt.Errorf("unknown snapshot %s", id)
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return fmt.Errorf("parse snapshot id: %w", err)
	}
	for key := range c.snapshots {
		if k, err := strconv.ParseUint(key, 10, 64); err == nil && k >= n {
			delete(c.snapshots, key)
		}
	}
	c.cur = saved
	return nil
}

func (c *Chain) balance(asset common.Address, account common.Address) *big.Int {
	if holders, ok := c.cur.balances[asset]; ok {
		if value, ok := holders[account]; ok {
			return value
		}
	}
	return new(big.Int)
}

func (c *Chain) credit(asset common.Address, account common.Address, amount *big.Int) {
	holders, ok := c.cur.balances[asset]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		c.cur.balances[asset] = holders
	}
	holders[account] = new(big.Int).Add(c.balance(asset, account), amount)
}

func (c *Chain) debit(asset common.Address, account common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	current := c.balance(asset, account)
	if current.Cmp(amount) < 0 {
		return fmt.Errorf("transfer amount exceeds balance: have %s, need %s", current, amount)
	}
	c.cur.balances[asset][account] = new(big.Int).Sub(current, amount)
	return nil
}

func (c *Chain) transferFrom(asset common.Address, spender common.Address, from common.Address, to common.Address, amount *big.Int) error {
	key := allowanceKey{asset, from, spender}
	allowed, ok := c.cur.allowances[key]
	if !ok || allowed.Cmp(amount) < 0 {
		return fmt.Errorf("transfer amount exceeds allowance")
	}
	if err := c.debit(asset, from, amount); err != nil {
		return err
	}
	c.cur.allowances[key] = new(big.Int).Sub(allowed, amount)
	c.credit(asset, to, amount)
	return nil
}

func (s state) clone() state {
	out := state{
		balances:   make(map[common.Address]map[common.Address]*big.Int, len(s.balances)),
		allowances: make(map[allowanceKey]*big.Int, len(s.allowances)),
		pools:      make(map[common.Address]*poolState, len(s.pools)),
	}
	for asset, holders := range s.balances {
		copied := make(map[common.Address]*big.Int, len(holders))
		for account, value := range holders {
			copied[account] = new(big.Int).Set(value)
		}
		out.balances[asset] = copied
	}
	for key, value := range s.allowances {
		out.allowances[key] = new(big.Int).Set(value)
	}
	for addr, pool := range s.pools {
		out.pools[addr] = pool.clone()
	}
	return out
}
