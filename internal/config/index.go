package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// IndexConfig holds configuration for the index command.
type IndexConfig struct {
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	Pools             []common.Address
	BatchSize         uint64
	Storage           StorageConfig
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// LoadIndex merges .env, config file, environment variables, and flags into
// IndexConfig. Without explicit pools every registered pool is indexed.
func LoadIndex(cfgFile string, flags *pflag.FlagSet) (IndexConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("batch-size", uint64(2000))
		v.SetDefault("out", "./data/pool_events.jsonl")
		v.SetDefault("checkpoint", "./data/checkpoint.json")
		v.SetDefault("checkpoint-enabled", true)
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
	})
	if err != nil {
		return IndexConfig{}, err
	}

	registry, err := loadRegistry(v)
	if err != nil {
		return IndexConfig{}, err
	}
	var pools []common.Address
	for _, raw := range getStringSlice(v, "pool") {
		addr, err := registry.ResolvePool(raw)
		if err != nil {
			return IndexConfig{}, err
		}
		pools = append(pools, addr)
	}
	if len(pools) == 0 {
		pools = registry.PoolAddresses()
	}

	cfg := IndexConfig{
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Pools:             pools,
		BatchSize:         v.GetUint64("batch-size"),
		Storage:           loadStorage(v),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}
	if cfg.RPCURL == "" {
		return IndexConfig{}, fmt.Errorf("rpc is required")
	}
	if len(cfg.Pools) == 0 {
		return IndexConfig{}, fmt.Errorf("no pools configured")
	}

	return cfg, nil
}
