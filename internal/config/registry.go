package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Registry maps deployment names to addresses. It is resolved once at
// startup and passed to whatever parses spells or filters pools.
type Registry struct {
	assets map[string]common.Address
	pools  map[string]common.Address
}

// NewRegistry validates name to address maps. Names are matched
// case-insensitively since viper lowercases map keys.
func NewRegistry(assets map[string]string, pools map[string]string) (Registry, error) {
	parsedAssets, err := parseAddressMap("asset", assets)
	if err != nil {
		return Registry{}, err
	}
	parsedPools, err := parseAddressMap("pool", pools)
	if err != nil {
		return Registry{}, err
	}
	return Registry{assets: parsedAssets, pools: parsedPools}, nil
}

func loadRegistry(v *viper.Viper) (Registry, error) {
	return NewRegistry(getStringMap(v, "assets"), getStringMap(v, "pools"))
}

// Asset resolves an asset name.
func (r Registry) Asset(name string) (common.Address, bool) {
	addr, ok := r.assets[strings.ToLower(strings.TrimSpace(name))]
	return addr, ok
}

// Pool resolves a pool name.
func (r Registry) Pool(name string) (common.Address, bool) {
	addr, ok := r.pools[strings.ToLower(strings.TrimSpace(name))]
	return addr, ok
}

// PoolAddresses returns every registered pool, sorted by address.
func (r Registry) PoolAddresses() []common.Address {
	out := make([]common.Address, 0, len(r.pools))
	for _, addr := range r.pools {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].Hex(), out[j].Hex()) < 0
	})
	return out
}

// ResolvePool accepts a hex address or a registered pool name.
func (r Registry) ResolvePool(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if common.IsHexAddress(input) {
		return common.HexToAddress(input), nil
	}
	if addr, ok := r.Pool(input); ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("unknown pool %q", input)
}

// ResolveAsset accepts a hex address or a registered asset name.
func (r Registry) ResolveAsset(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if common.IsHexAddress(input) {
		return common.HexToAddress(input), nil
	}
	if addr, ok := r.Asset(input); ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("unknown asset %q", input)
}

func parseAddressMap(kind string, input map[string]string) (map[string]common.Address, error) {
	out := make(map[string]common.Address, len(input))
	for name, raw := range input {
		raw = strings.TrimSpace(raw)
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("%s %q: invalid address %q", kind, name, raw)
		}
		out[strings.ToLower(strings.TrimSpace(name))] = common.HexToAddress(raw)
	}
	return out, nil
}
