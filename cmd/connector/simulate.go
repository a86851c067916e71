package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldConnector/internal/cast"
	"yieldConnector/internal/config"
	"yieldConnector/internal/connector"
	"yieldConnector/internal/lock"
	"yieldConnector/internal/sim"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	spells, err := cast.LoadSpells(cfg.Spells)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simChain := newSimChain(cfg)

	store, closeStore, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	conn := connector.New(simChain, simChain, simChain, logger)
	runner := cast.NewRunner(conn, simChain, cfg.Registry, store, lock.NewLocal(), logger)

	receipt, err := runner.Cast(ctx, cfg.Account, spells)
	if err != nil {
		return err
	}

	for asset := range cfg.Balances {
		balance, err := simChain.BalanceOf(ctx, asset, cfg.Account)
		if err != nil {
			return err
		}
		logger.Info("final balance", zap.String("asset", asset.Hex()), zap.String("balance", balance.String()))
	}
	for _, pool := range cfg.Pools {
		balance, err := simChain.BalanceOf(ctx, pool.Address, cfg.Account)
		if err != nil {
			return err
		}
		logger.Info("final position", zap.String("pool", pool.Address.Hex()), zap.String("balance", balance.String()))
	}

	return printReceipt(receipt)
}

func newSimChain(cfg config.SimulateConfig) *sim.Chain {
	now := cfg.Now
	if now == 0 {
		now = uint64(time.Now().Unix())
	}
	simChain := sim.NewChain(now)
	for asset, amount := range cfg.Balances {
		simChain.Mint(asset, cfg.Account, amount)
	}
	for _, pool := range cfg.Pools {
		simChain.AddPool(pool.Address, sim.PoolConfig{
			Underlying:   pool.Underlying,
			Provider:     pool.Provider,
			ExchangeRate: pool.ExchangeRate,
			BuyFeeBps:    pool.BuyFeeBps,
			SellFeeBps:   pool.SellFeeBps,
			BondRateBps:  pool.BondRateBps,
			RedeemFeeBps: pool.RedeemFeeBps,
		}, pool.Reserve)
	}
	return simChain
}
