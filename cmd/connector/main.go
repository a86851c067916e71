package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"yieldConnector/internal/cast"
	"yieldConnector/internal/config"
	"yieldConnector/internal/lock"
	"yieldConnector/internal/storage"
	"yieldConnector/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "connector",
		Short:        "SmartYield connector: cast spells and index pool events",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	castCmd := &cobra.Command{
		Use:   "cast",
		Short: "Run a cast against a development node",
		RunE:  runCast,
	}

	castCmd.Flags().String("rpc", "", "development node RPC URL (anvil or hardhat)")
	castCmd.Flags().String("account", "", "account to impersonate")
	castCmd.Flags().String("spells", "", "JSON file with the spells of the cast")
	castCmd.Flags().String("out", "./data/actions.jsonl", "action records JSONL path")
	castCmd.Flags().String("failures", "./data/cast_failures.jsonl", "cast failures JSONL path")
	castCmd.Flags().String("pg-dsn", "", "Postgres DSN, replaces the JSONL sink when set")
	castCmd.Flags().String("redis-addr", "", "Redis address for the account lock, in-process lock when empty")
	castCmd.Flags().String("redis-password", "", "Redis password")
	castCmd.Flags().Int("redis-db", 0, "Redis database")
	castCmd.Flags().Duration("lock-ttl", time.Minute, "account lock TTL")
	castCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(castCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a cast against an in-memory ledger and pools",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("account", "", "acting account")
	simulateCmd.Flags().String("spells", "", "JSON file with the spells of the cast")
	simulateCmd.Flags().Uint64("now", 0, "simulated unix time, 0 means wall clock")
	simulateCmd.Flags().String("out", "./data/sim_actions.jsonl", "action records JSONL path")
	simulateCmd.Flags().String("failures", "./data/sim_cast_failures.jsonl", "cast failures JSONL path")
	simulateCmd.Flags().String("pg-dsn", "", "Postgres DSN, replaces the JSONL sink when set")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Index SmartYield pool events",
		RunE:  runIndex,
	}

	indexCmd.Flags().String("rpc", "", "RPC URL")
	indexCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	indexCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	indexCmd.Flags().StringSlice("pool", nil, "pool addresses or registry names (comma-separated), all registered pools when empty")
	indexCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	indexCmd.Flags().String("out", "./data/pool_events.jsonl", "output JSONL path")
	indexCmd.Flags().String("pg-dsn", "", "Postgres DSN, replaces the JSONL sink when set")
	indexCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	indexCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	indexCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	indexCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	indexCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(indexCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// recordStore is implemented by every storage backend.
type recordStore interface {
	storage.Storage
	storage.CastSink
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (recordStore, func(), error) {
	if cfg.PGDSN == "" {
		logger.Info("storage", zap.String("kind", "jsonl"), zap.String("out", cfg.Out), zap.String("failures", cfg.Failures))
		return storage.NewJsonlStorage(cfg.Out, cfg.Failures), func() {}, nil
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	logger.Info("storage", zap.String("kind", "postgres"))
	return store, store.Close, nil
}

func openLocker(ctx context.Context, cfg config.LockConfig, logger *zap.Logger) (cast.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocal(), func() {}, nil
	}

	locker, err := lock.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("account lock", zap.String("kind", "redis"), zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
	return locker, func() {
		if err := locker.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}, nil
}

func printReceipt(receipt cast.Receipt) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		CastID  string      `json:"cast_id"`
		Account string      `json:"account"`
		Records interface{} `json:"records"`
	}{
		CastID:  receipt.CastID,
		Account: receipt.Account.Hex(),
		Records: receipt.Records,
	})
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
