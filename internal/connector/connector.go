package connector

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"yieldConnector/internal/model"
)

// Outcome is the result of one action and the record describing it.
type Outcome struct {
	Result model.ActionResult
	Record model.ActionRecord
}

// Connector executes the yield pool actions on behalf of an account.
type Connector struct {
	resolver Resolver
	approver Approver
	pool     PoolAdapter
	guard    Guard
	encoder  Encoder
	logger   *zap.Logger
}

// New builds a Connector over the given ledger, pool and clock.
func New(ledger AssetLedger, pool YieldPool, clock Clock, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		resolver: Resolver{Ledger: ledger},
		approver: Approver{Ledger: ledger},
		pool:     PoolAdapter{Pool: pool},
		guard:    Guard{Clock: clock},
		logger:   logger,
	}
}

// Execute dispatches req to the action named by kind.
func (c *Connector) Execute(ctx context.Context, mem *Memory, account common.Address, kind model.ActionKind, req model.ActionRequest) (Outcome, error) {
	switch kind {
	case model.ActionAcquirePosition:
		return c.AcquirePosition(ctx, mem, account, req)
	case model.ActionLiquidatePosition:
		return c.LiquidatePosition(ctx, mem, account, req)
	case model.ActionAcquireBond:
		return c.AcquireBond(ctx, mem, account, req)
	case model.ActionRedeemBond:
		return c.RedeemBond(ctx, mem, account, req)
	default:
		return Outcome{}, fmt.Errorf("unsupported action: %s", kind)
	}
}

// AcquirePosition deposits underlying into the pool for position units.
func (c *Connector) AcquirePosition(ctx context.Context, mem *Memory, account common.Address, req model.ActionRequest) (Outcome, error) {
	if _, err := c.guard.CheckDeadline(ctx, req.Deadline); err != nil {
		return Outcome{}, err
	}
	amount, err := c.resolver.Resolve(ctx, mem, req.Amount, req.ReadSlot, req.Asset, account)
	if err != nil {
		return Outcome{}, err
	}

	spender, err := c.pool.Spender(ctx, req.Pool)
	if err != nil {
		return Outcome{}, err
	}
	if err := c.approver.EnsureAllowance(ctx, req.Asset, account, spender, amount); err != nil {
		return Outcome{}, err
	}

	units, err := c.pool.AcquirePosition(ctx, account, req.Pool, amount, orZero(req.MinOutput), req.Deadline)
	if err != nil {
		return Outcome{}, err
	}

	return c.finish(ctx, mem, account, model.ActionAcquirePosition, req, model.ActionResult{AmountIn: amount, AmountOut: units})
}

// LiquidatePosition sells position units back to the pool for underlying.
func (c *Connector) LiquidatePosition(ctx context.Context, mem *Memory, account common.Address, req model.ActionRequest) (Outcome, error) {
	if _, err := c.guard.CheckDeadline(ctx, req.Deadline); err != nil {
		return Outcome{}, err
	}
	// position units are the pool's own token
	amount, err := c.resolver.Resolve(ctx, mem, req.Amount, req.ReadSlot, req.Pool, account)
	if err != nil {
		return Outcome{}, err
	}

	if err := c.approver.EnsureAllowance(ctx, req.Pool, account, req.Pool, amount); err != nil {
		return Outcome{}, err
	}

	received, err := c.pool.LiquidatePosition(ctx, account, req.Pool, amount, orZero(req.MinOutput), req.Deadline)
	if err != nil {
		return Outcome{}, err
	}

	return c.finish(ctx, mem, account, model.ActionLiquidatePosition, req, model.ActionResult{AmountIn: amount, AmountOut: received})
}

// AcquireBond buys a fixed-term bond. MinOutput bounds principal plus gain.
func (c *Connector) AcquireBond(ctx context.Context, mem *Memory, account common.Address, req model.ActionRequest) (Outcome, error) {
	if _, err := c.guard.CheckDeadline(ctx, req.Deadline); err != nil {
		return Outcome{}, err
	}
	principal, err := c.resolver.Resolve(ctx, mem, req.Amount, req.ReadSlot, req.Asset, account)
	if err != nil {
		return Outcome{}, err
	}
	if req.TermDays == 0 {
		return Outcome{}, fmt.Errorf("%w: bond term must be at least one day", ErrInvalidAmount)
	}

	spender, err := c.pool.Spender(ctx, req.Pool)
	if err != nil {
		return Outcome{}, err
	}
	if err := c.approver.EnsureAllowance(ctx, req.Asset, account, spender, principal); err != nil {
		return Outcome{}, err
	}

	purchase, err := c.pool.AcquireBond(ctx, account, req.Pool, principal, minGain(req.MinOutput, principal), req.Deadline, req.TermDays)
	if err != nil {
		return Outcome{}, err
	}

	return c.finish(ctx, mem, account, model.ActionAcquireBond, req, model.ActionResult{
		AmountIn:  principal,
		AmountOut: purchase.Units,
		BondID:    purchase.BondID,
	})
}

// RedeemBond redeems a matured bond for underlying. No allowance is needed.
func (c *Connector) RedeemBond(ctx context.Context, mem *Memory, account common.Address, req model.ActionRequest) (Outcome, error) {
	if _, err := c.guard.CheckDeadline(ctx, req.Deadline); err != nil {
		return Outcome{}, err
	}
	bondID, err := c.resolver.ResolveBondID(mem, req.Amount, req.ReadSlot)
	if err != nil {
		return Outcome{}, err
	}

	received, err := c.pool.RedeemBond(ctx, account, req.Pool, bondID)
	if err != nil {
		return Outcome{}, err
	}

	return c.finish(ctx, mem, account, model.ActionRedeemBond, req, model.ActionResult{
		AmountIn:  bondID,
		AmountOut: received,
		BondID:    bondID,
	})
}

func (c *Connector) finish(ctx context.Context, mem *Memory, account common.Address, kind model.ActionKind, req model.ActionRequest, result model.ActionResult) (Outcome, error) {
	executedAt, err := c.guard.Check(ctx, req.Deadline, result.AmountOut, req.MinOutput)
	if err != nil {
		return Outcome{}, err
	}

	mem.Set(req.WriteSlot, result.AmountOut)
	record := c.encoder.Encode(kind, account, req, result, executedAt)

	c.logger.Debug("action complete",
		zap.String("kind", string(kind)),
		zap.String("account", account.Hex()),
		zap.String("pool", req.Pool.Hex()),
		zap.String("amount_in", record.AmountIn),
		zap.String("amount_out", record.AmountOut),
		zap.Uint64("write_slot", req.WriteSlot),
	)

	return Outcome{Result: result, Record: record}, nil
}

func minGain(minOutput *big.Int, principal *big.Int) *big.Int {
	if minOutput == nil || minOutput.Cmp(principal) <= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(minOutput, principal)
}
