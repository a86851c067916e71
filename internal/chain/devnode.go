package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// The helpers below target local development nodes (anvil, hardhat) that
// expose snapshot and impersonation RPCs.

// Snapshot takes an evm_snapshot and returns its id.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	var id string
	if err := c.rpcClient.CallContext(ctx, &id, "evm_snapshot"); err != nil {
		return "", fmt.Errorf("evm_snapshot: %w", err)
	}
	return id, nil
}

// Revert restores the node to the snapshot id.
func (c *Client) Revert(ctx context.Context, id string) error {
	var ok bool
	if err := c.rpcClient.CallContext(ctx, &ok, "evm_revert", id); err != nil {
		return fmt.Errorf("evm_revert: %w", err)
	}
	if !ok {
		return fmt.Errorf("evm_revert: snapshot %s not found", id)
	}
	return nil
}

// Impersonate lets eth_sendTransaction sign for account.
func (c *Client) Impersonate(ctx context.Context, account common.Address) error {
	var errs []error
	for _, method := range []string{"anvil_impersonateAccount", "hardhat_impersonateAccount"} {
		err := c.rpcClient.CallContext(ctx, nil, method, account)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", method, err))
	}
	return errors.Join(errs...)
}

type sendTxArgs struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// SendTransaction submits an unsigned transaction from an impersonated or
// unlocked account.
func (c *Client) SendTransaction(ctx context.Context, from common.Address, to common.Address, data []byte) (common.Hash, error) {
	var hash common.Hash
	args := sendTxArgs{From: from, To: to, Data: data}
	if err := c.rpcClient.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// WaitReceipt polls until the transaction is mined.
func (c *Client) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := c.ethClient.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Transact sends a transaction and waits for a successful receipt.
func (c *Client) Transact(ctx context.Context, from common.Address, to common.Address, data []byte) (*types.Receipt, error) {
	hash, err := c.SendTransaction(ctx, from, to, data)
	if err != nil {
		return nil, err
	}
	receipt, err := c.WaitReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", hash.Hex())
	}
	return receipt, nil
}
