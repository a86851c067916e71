package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"yieldConnector/internal/model"
)

// SimPool seeds one in-memory yield pool.
type SimPool struct {
	Address      common.Address
	Underlying   common.Address
	Provider     common.Address
	ExchangeRate *big.Int
	BuyFeeBps    uint64
	SellFeeBps   uint64
	BondRateBps  uint64
	RedeemFeeBps uint64
	Reserve      *big.Int
}

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	Account  common.Address
	Spells   string
	Now      uint64
	Balances map[common.Address]*big.Int
	Pools    []SimPool
	Storage  StorageConfig
	Registry Registry
	LogLevel string
}

type rawSimPool struct {
	Pool         string `mapstructure:"pool"`
	Underlying   string `mapstructure:"underlying"`
	Provider     string `mapstructure:"provider"`
	ExchangeRate string `mapstructure:"exchange-rate"`
	BuyFeeBps    uint64 `mapstructure:"buy-fee-bps"`
	SellFeeBps   uint64 `mapstructure:"sell-fee-bps"`
	BondRateBps  uint64 `mapstructure:"bond-rate-bps"`
	RedeemFeeBps uint64 `mapstructure:"redeem-fee-bps"`
	Reserve      string `mapstructure:"reserve"`
}

const defaultExchangeRate = "1000000000000000000"

// LoadSimulate merges .env, config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		storageDefaults(v)
		v.SetDefault("out", "./data/sim_actions.jsonl")
		v.SetDefault("failures", "./data/sim_cast_failures.jsonl")
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	account, err := parseAccount(v.GetString("account"))
	if err != nil {
		return SimulateConfig{}, err
	}
	registry, err := loadRegistry(v)
	if err != nil {
		return SimulateConfig{}, err
	}

	balances := make(map[common.Address]*big.Int)
	for name, raw := range getStringMap(v, "balances") {
		asset, err := registry.ResolveAsset(name)
		if err != nil {
			return SimulateConfig{}, fmt.Errorf("balances: %w", err)
		}
		amount, err := model.ParseQuantity(raw)
		if err != nil {
			return SimulateConfig{}, fmt.Errorf("balances %s: %w", name, err)
		}
		balances[asset] = amount
	}

	var rawPools []rawSimPool
	if err := v.UnmarshalKey("sim-pools", &rawPools); err != nil {
		return SimulateConfig{}, fmt.Errorf("sim-pools: %w", err)
	}
	pools := make([]SimPool, 0, len(rawPools))
	for i, raw := range rawPools {
		pool, err := raw.resolve(registry)
		if err != nil {
			return SimulateConfig{}, fmt.Errorf("sim-pools[%d]: %w", i, err)
		}
		pools = append(pools, pool)
	}

	cfg := SimulateConfig{
		Account:  account,
		Spells:   v.GetString("spells"),
		Now:      v.GetUint64("now"),
		Balances: balances,
		Pools:    pools,
		Storage:  loadStorage(v),
		Registry: registry,
		LogLevel: v.GetString("log-level"),
	}
	if cfg.Spells == "" {
		return SimulateConfig{}, fmt.Errorf("spells is required")
	}

	return cfg, nil
}

func (r rawSimPool) resolve(registry Registry) (SimPool, error) {
	pool, err := registry.ResolvePool(r.Pool)
	if err != nil {
		return SimPool{}, err
	}
	underlying, err := registry.ResolveAsset(r.Underlying)
	if err != nil {
		return SimPool{}, err
	}
	var provider common.Address
	if strings.TrimSpace(r.Provider) != "" {
		if !common.IsHexAddress(r.Provider) {
			return SimPool{}, fmt.Errorf("invalid provider address %q", r.Provider)
		}
		provider = common.HexToAddress(r.Provider)
	}

	rateRaw := r.ExchangeRate
	if strings.TrimSpace(rateRaw) == "" {
		rateRaw = defaultExchangeRate
	}
	rate, err := model.ParseQuantity(rateRaw)
	if err != nil {
		return SimPool{}, fmt.Errorf("exchange-rate: %w", err)
	}
	if rate.Sign() == 0 {
		return SimPool{}, fmt.Errorf("exchange-rate must be positive")
	}

	reserve := new(big.Int)
	if strings.TrimSpace(r.Reserve) != "" {
		if reserve, err = model.ParseQuantity(r.Reserve); err != nil {
			return SimPool{}, fmt.Errorf("reserve: %w", err)
		}
	}

	return SimPool{
		Address:      pool,
		Underlying:   underlying,
		Provider:     provider,
		ExchangeRate: rate,
		BuyFeeBps:    r.BuyFeeBps,
		SellFeeBps:   r.SellFeeBps,
		BondRateBps:  r.BondRateBps,
		RedeemFeeBps: r.RedeemFeeBps,
		Reserve:      reserve,
	}, nil
}
