package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldConnector/internal/cast"
	"yieldConnector/internal/chain"
	"yieldConnector/internal/config"
	"yieldConnector/internal/connector"
	"yieldConnector/internal/smartyield"
)

func runCast(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCast(cfgFile, cmd.Flags())
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

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	if err := chainClient.Impersonate(ctx, cfg.Account); err != nil {
		return fmt.Errorf("impersonate %s: %w", cfg.Account.Hex(), err)
	}

	backend, err := smartyield.NewBackend(chainClient, logger)
	if err != nil {
		return err
	}

	store, closeStore, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	locker, closeLocker, err := openLocker(ctx, cfg.Lock, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	conn := connector.New(backend, backend, backend, logger)
	runner := cast.NewRunner(conn, backend, cfg.Registry, store, locker, logger)

	logger.Info("cast start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("account", cfg.Account.Hex()),
		zap.String("spells", cfg.Spells),
		zap.Int("actions", len(spells)),
	)

	receipt, err := runner.Cast(ctx, cfg.Account, spells)
	if err != nil {
		return err
	}
	return printReceipt(receipt)
}
