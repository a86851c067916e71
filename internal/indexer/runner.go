package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"yieldConnector/internal/model"
	"yieldConnector/internal/smartyield"
	"yieldConnector/internal/storage"
)

// LogSource is the chain access the indexer needs. *chain.Client satisfies it.
type LogSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock uint64, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	Pools             []common.Address
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner indexes SmartYield pool events into storage.
type Runner struct {
	cfg        RunConfig
	source     LogSource
	decoder    *smartyield.Decoder
	storage    storage.Storage
	logger     *zap.Logger
	retry      retryPolicy
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source LogSource, decoder *smartyield.Decoder, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		decoder:    decoder,
		storage:    storageSink,
		logger:     logger,
		retry:      newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff, logger),
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled, cfg.Pools),
	}
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("log source is nil")
	}
	if r.decoder == nil {
		return fmt.Errorf("decoder is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Pools) == 0 {
		return fmt.Errorf("at least one pool is required")
	}

	chainID, err := r.source.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.source.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	if !ok && cp.LastProcessedBlock > 0 {
		r.logger.Warn("checkpoint pool set changed, ignoring", zap.Strings("checkpoint_pools", cp.Pools))
	}
	from := resumeFrom(r.cfg.FromBlock, cp, ok)
	if from != r.cfg.FromBlock {
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	topics := r.decoder.Topics()
	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch pool events", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		var logs []types.Log
		err := r.retry.do(ctx, "filter logs", func(ctx context.Context) error {
			var err error
			logs, err = r.source.FilterLogs(ctx, blockRange.From, blockRange.To, r.cfg.Pools, topics)
			return err
		}, zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		records, err := r.buildRecords(ctx, chainIDValue, logs)
		if err != nil {
			return err
		}

		if err := r.storage.PutPoolEventBatch(ctx, records); err != nil {
			return fmt.Errorf("store pool events: %w", err)
		}

		if err := r.checkpoint.Save(blockRange.To); err != nil {
			return err
		}

		r.logger.Info("batch complete", zap.Int("events", len(records)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	return nil
}

func (r *Runner) buildRecords(ctx context.Context, chainID uint64, logs []types.Log) ([]model.PoolEventRecord, error) {
	ingestedAt := time.Now().UTC()
	records := make([]model.PoolEventRecord, 0, len(logs))
	for _, log := range logs {
		if r.isDuplicate(log) {
			continue
		}

		event, err := r.decoder.Decode(log)
		if err != nil {
			r.logger.Warn("skip undecodable log",
				zap.Error(err),
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.Uint("log_index", log.Index),
			)
			continue
		}

		var ts uint64
		err = r.retry.do(ctx, "block timestamp", func(ctx context.Context) error {
			var err error
			ts, err = r.source.BlockTimestamp(ctx, log.BlockNumber)
			return err
		}, zap.Uint64("block_number", log.BlockNumber))
		if err != nil {
			return nil, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		records = append(records, buildPoolEventRecord(chainID, log, event, ts, ingestedAt))
	}
	return records, nil
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
