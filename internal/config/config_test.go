package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

const simYAML = `
account: "0x00000000000000000000000000000000000000a1"
spells: ./spells.json
now: 1700000000
assets:
  USDC: "0x00000000000000000000000000000000000000c1"
pools:
  bb_cUSDC: "0x00000000000000000000000000000000000000d1"
balances:
  usdc: "10000000"
sim-pools:
  - pool: bb_cUSDC
    underlying: USDC
    buy-fee-bps: 50
    bond-rate-bps: 500
    reserve: "1000000000"
`

func TestLoadSimulate(t *testing.T) {
	cfg, err := LoadSimulate(writeConfig(t, simYAML), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	usdc := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	pool := common.HexToAddress("0x00000000000000000000000000000000000000d1")

	if cfg.Account != common.HexToAddress("0x00000000000000000000000000000000000000a1") {
		t.Fatalf("account mismatch: %s", cfg.Account.Hex())
	}
	if cfg.Now != 1700000000 {
		t.Fatalf("now mismatch: %d", cfg.Now)
	}
	if got := cfg.Balances[usdc]; got == nil || got.String() != "10000000" {
		t.Fatalf("balance mismatch: %v", got)
	}
	if len(cfg.Pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(cfg.Pools))
	}
	simPool := cfg.Pools[0]
	if simPool.Address != pool || simPool.Underlying != usdc {
		t.Fatalf("pool mismatch: %+v", simPool)
	}
	if simPool.ExchangeRate.String() != defaultExchangeRate {
		t.Fatalf("exchange rate mismatch: %s", simPool.ExchangeRate)
	}
	if simPool.BuyFeeBps != 50 || simPool.BondRateBps != 500 {
		t.Fatalf("fee mismatch: %+v", simPool)
	}
	if simPool.Reserve.String() != "1000000000" {
		t.Fatalf("reserve mismatch: %s", simPool.Reserve)
	}
	if cfg.Storage.Out != "./data/sim_actions.jsonl" {
		t.Fatalf("out mismatch: %s", cfg.Storage.Out)
	}
}

func TestLoadSimulateRejectsUnknownAsset(t *testing.T) {
	body := `
account: "0x00000000000000000000000000000000000000a1"
spells: ./spells.json
balances:
  dai: "1"
`
	if _, err := LoadSimulate(writeConfig(t, body), nil); err == nil {
		t.Fatalf("expected error for unregistered asset")
	}
}

func TestLoadIndexDefaultsToRegistryPools(t *testing.T) {
	body := `
rpc: http://127.0.0.1:8545
pools:
  b: "0x00000000000000000000000000000000000000d2"
  a: "0x00000000000000000000000000000000000000d1"
`
	cfg, err := LoadIndex(writeConfig(t, body), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []common.Address{
		common.HexToAddress("0x00000000000000000000000000000000000000d1"),
		common.HexToAddress("0x00000000000000000000000000000000000000d2"),
	}
	if !reflect.DeepEqual(cfg.Pools, want) {
		t.Fatalf("pools mismatch: %+v", cfg.Pools)
	}
	if cfg.BatchSize != 2000 {
		t.Fatalf("batch size mismatch: %d", cfg.BatchSize)
	}
	if !cfg.CheckpointEnabled {
		t.Fatalf("expected checkpoint enabled by default")
	}
}

func TestRegistryLookup(t *testing.T) {
	registry, err := NewRegistry(
		map[string]string{"USDC": "0x00000000000000000000000000000000000000c1"},
		map[string]string{"bb_cUSDC": "0x00000000000000000000000000000000000000d1"},
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	addr, ok := registry.Asset("usdc")
	if !ok || addr != common.HexToAddress("0x00000000000000000000000000000000000000c1") {
		t.Fatalf("asset lookup mismatch: %s %v", addr.Hex(), ok)
	}
	if _, ok := registry.Pool("missing"); ok {
		t.Fatalf("expected missing pool")
	}
	if _, err := NewRegistry(map[string]string{"bad": "nope"}, nil); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}

func TestParseStringMap(t *testing.T) {
	out := parseStringMap("a=1, b = 2,broken,=3")
	want := map[string]string{"a": "1", "b": "2"}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("map mismatch: %+v", out)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
