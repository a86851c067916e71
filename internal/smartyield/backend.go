package smartyield

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"yieldConnector/internal/chain"
	"yieldConnector/internal/connector"
)

// Backend drives ERC20 tokens and SmartYield pools on a development node
// through impersonated accounts.
type Backend struct {
	chain   *chain.Client
	decoder *Decoder
	logger  *zap.Logger
}

var (
	_ connector.AssetLedger = (*Backend)(nil)
	_ connector.YieldPool   = (*Backend)(nil)
	_ connector.Clock       = (*Backend)(nil)
)

// NewBackend builds a Backend over chainClient.
func NewBackend(chainClient *chain.Client, logger *zap.Logger) (*Backend, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	return &Backend{chain: chainClient, decoder: decoder, logger: logger}, nil
}

// Now implements connector.Clock using the latest block timestamp.
func (b *Backend) Now(ctx context.Context) (uint64, error) {
	return b.chain.LatestTimestamp(ctx)
}

// Snapshot implements cast.Journal.
func (b *Backend) Snapshot(ctx context.Context) (string, error) {
	return b.chain.Snapshot(ctx)
}

// Revert implements cast.Journal.
func (b *Backend) Revert(ctx context.Context, id string) error {
	return b.chain.Revert(ctx, id)
}

// BalanceOf implements connector.AssetLedger.
func (b *Backend) BalanceOf(ctx context.Context, asset common.Address, account common.Address) (*big.Int, error) {
	return b.callUint(ctx, asset, ERC20ABI, "balanceOf", account)
}

// Allowance implements connector.AssetLedger.
func (b *Backend) Allowance(ctx context.Context, asset common.Address, owner common.Address, spender common.Address) (*big.Int, error) {
	return b.callUint(ctx, asset, ERC20ABI, "allowance", owner, spender)
}

// Approve implements connector.AssetLedger.
func (b *Backend) Approve(ctx context.Context, asset common.Address, owner common.Address, spender common.Address, amount *big.Int) error {
	parsed, err := ERC20ABI()
	if err != nil {
		return err
	}
	data, err := parsed.Pack("approve", spender, amount)
	if err != nil {
		return fmt.Errorf("pack approve: %w", err)
	}
	if _, err := b.chain.Transact(ctx, owner, asset, data); err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	b.logger.Debug("approved", zap.String("asset", asset.Hex()), zap.String("spender", spender.Hex()), zap.String("amount", amount.String()))
	return nil
}

// Spender implements connector.YieldPool: the pool's provider pulls underlying.
func (b *Backend) Spender(ctx context.Context, pool common.Address) (common.Address, error) {
	values, err := b.call(ctx, pool, SmartYieldABI, "pool")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// BuyTokens implements connector.YieldPool.
func (b *Backend) BuyTokens(ctx context.Context, account common.Address, pool common.Address, underlying *big.Int, minTokens *big.Int, deadline uint64) (*big.Int, error) {
	event, err := b.transactPool(ctx, account, pool, "BuyTokens", "buyTokens", underlying, minTokens, new(big.Int).SetUint64(deadline))
	if err != nil {
		return nil, err
	}
	return event.AmountOut, nil
}

// SellTokens implements connector.YieldPool.
func (b *Backend) SellTokens(ctx context.Context, account common.Address, pool common.Address, tokens *big.Int, minUnderlying *big.Int, deadline uint64) (*big.Int, error) {
	event, err := b.transactPool(ctx, account, pool, "SellTokens", "sellTokens", tokens, minUnderlying, new(big.Int).SetUint64(deadline))
	if err != nil {
		return nil, err
	}
	return event.AmountOut, nil
}

// BuyBond implements connector.YieldPool.
func (b *Backend) BuyBond(ctx context.Context, account common.Address, pool common.Address, principal *big.Int, minGain *big.Int, deadline uint64, forDays uint16) (connector.BondPurchase, error) {
	event, err := b.transactPool(ctx, account, pool, "BuySeniorBond", "buyBond", principal, minGain, new(big.Int).SetUint64(deadline), forDays)
	if err != nil {
		return connector.BondPurchase{}, err
	}
	return connector.BondPurchase{BondID: event.BondID, Units: event.AmountOut}, nil
}

// RedeemBond implements connector.YieldPool. The redeem event carries only
// the fee, so the payout is measured as the account's underlying balance
// change across the transaction.
func (b *Backend) RedeemBond(ctx context.Context, account common.Address, pool common.Address, bondID *big.Int) (*big.Int, error) {
	provider, err := b.Spender(ctx, pool)
	if err != nil {
		return nil, err
	}
	values, err := b.call(ctx, provider, providerABIInstance, "uToken")
	if err != nil {
		return nil, err
	}
	underlying, err := asAddress(values[0])
	if err != nil {
		return nil, fmt.Errorf("uToken: %w", err)
	}

	before, err := b.BalanceOf(ctx, underlying, account)
	if err != nil {
		return nil, err
	}
	if _, err := b.transactPool(ctx, account, pool, "RedeemSeniorBond", "redeemBond", bondID); err != nil {
		return nil, err
	}
	after, err := b.BalanceOf(ctx, underlying, account)
	if err != nil {
		return nil, err
	}
	if after.Cmp(before) < 0 {
		return nil, fmt.Errorf("redeem bond: balance decreased from %s to %s", before, after)
	}
	return new(big.Int).Sub(after, before), nil
}

func (b *Backend) transactPool(ctx context.Context, account common.Address, pool common.Address, eventName string, method string, args ...interface{}) (Event, error) {
	poolABI, err := SmartYieldABI()
	if err != nil {
		return Event{}, err
	}
	data, err := poolABI.Pack(method, args...)
	if err != nil {
		return Event{}, fmt.Errorf("pack %s: %w", method, err)
	}
	receipt, err := b.chain.Transact(ctx, account, pool, data)
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", method, err)
	}
	event, err := b.decoder.FindEvent(receipt, pool, eventName)
	if err != nil {
		return Event{}, err
	}
	b.logger.Debug("pool call mined",
		zap.String("method", method),
		zap.String("pool", pool.Hex()),
		zap.String("tx_hash", receipt.TxHash.Hex()),
		zap.Uint64("block_number", receipt.BlockNumber.Uint64()),
	)
	return event, nil
}

func (b *Backend) callUint(ctx context.Context, to common.Address, parsed func() (abi.ABI, error), method string, args ...interface{}) (*big.Int, error) {
	values, err := b.call(ctx, to, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	value, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return value, nil
}

func (b *Backend) call(ctx context.Context, to common.Address, parsed func() (abi.ABI, error), method string, args ...interface{}) ([]interface{}, error) {
	contractABI, err := parsed()
	if err != nil {
		return nil, err
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := b.chain.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := contractABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}
