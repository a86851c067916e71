// Package lock serializes casts per account.
package lock

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrLockHeld is returned when another cast holds the account.
var ErrLockHeld = errors.New("lock already held")

func lockKey(account common.Address) string {
	return "lock:cast:" + account.Hex()
}

// Local is an in-process account locker.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// Lock claims account or returns ErrLockHeld. The returned unlock is safe to
// call more than once.
func (l *Local) Lock(_ context.Context, account common.Address) (func(), error) {
	key := lockKey(account)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrLockHeld
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
