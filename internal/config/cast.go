package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CastConfig holds configuration for the cast command.
type CastConfig struct {
	RPCURL   string
	Account  common.Address
	Spells   string
	Storage  StorageConfig
	Lock     LockConfig
	Registry Registry
	LogLevel string
}

// LoadCast merges .env, config file, environment variables, and flags into CastConfig.
func LoadCast(cfgFile string, flags *pflag.FlagSet) (CastConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		storageDefaults(v)
		v.SetDefault("lock-ttl", time.Minute)
	})
	if err != nil {
		return CastConfig{}, err
	}

	account, err := parseAccount(v.GetString("account"))
	if err != nil {
		return CastConfig{}, err
	}
	registry, err := loadRegistry(v)
	if err != nil {
		return CastConfig{}, err
	}

	cfg := CastConfig{
		RPCURL:  v.GetString("rpc"),
		Account: account,
		Spells:  v.GetString("spells"),
		Storage: loadStorage(v),
		Lock: LockConfig{
			RedisAddr:     v.GetString("redis-addr"),
			RedisPassword: v.GetString("redis-password"),
			RedisDB:       v.GetInt("redis-db"),
			TTL:           v.GetDuration("lock-ttl"),
		},
		Registry: registry,
		LogLevel: v.GetString("log-level"),
	}
	if cfg.RPCURL == "" {
		return CastConfig{}, fmt.Errorf("rpc is required")
	}
	if cfg.Spells == "" {
		return CastConfig{}, fmt.Errorf("spells is required")
	}

	return cfg, nil
}

func parseAccount(raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return common.Address{}, fmt.Errorf("account is required")
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid account address %q", raw)
	}
	return common.HexToAddress(raw), nil
}
