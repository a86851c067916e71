package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	locker, err := NewRedis(context.Background(), server.Addr(), "", 0, ttl)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = locker.Close() })
	return locker, server
}

func TestRedisLockHeld(t *testing.T) {
	ctx := context.Background()
	locker, server := newTestRedis(t, time.Minute)
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	key := lockKey(account)

	unlock, err := locker.Lock(ctx, account)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !server.Exists(key) {
		t.Fatalf("expected key %s to be set", key)
	}
	if ttl := server.TTL(key); ttl != time.Minute {
		t.Fatalf("ttl mismatch: %s", ttl)
	}

	if _, err := locker.Lock(ctx, account); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}

	unlock()
	if server.Exists(key) {
		t.Fatalf("expected key %s to be released", key)
	}

	again, err := locker.Lock(ctx, account)
	if err != nil {
		t.Fatalf("relock after unlock: %v", err)
	}
	again()
}

func TestRedisStaleUnlockKeepsNewOwner(t *testing.T) {
	ctx := context.Background()
	locker, server := newTestRedis(t, time.Second)
	account := common.HexToAddress("0x2222222222222222222222222222222222222222")
	key := lockKey(account)

	stale, err := locker.Lock(ctx, account)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	server.FastForward(2 * time.Second)

	current, err := locker.Lock(ctx, account)
	if err != nil {
		t.Fatalf("lock after expiry: %v", err)
	}
	token, err := server.Get(key)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}

	stale()
	got, err := server.Get(key)
	if err != nil {
		t.Fatalf("stale unlock removed the current owner's key: %v", err)
	}
	if got != token {
		t.Fatalf("token mismatch: got %s want %s", got, token)
	}
	if _, err := locker.Lock(ctx, account); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}

	current()
	if server.Exists(key) {
		t.Fatalf("expected key %s to be released", key)
	}
}
