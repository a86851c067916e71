package connector

import (
	"context"
	"fmt"
	"math/big"
)

// Guard enforces the caller's deadline and minimum output.
type Guard struct {
	Clock Clock
}

// CheckDeadline fails with ErrDeadlineExpired once execution time is past
// deadline. It returns the execution time it compared against.
func (g Guard) CheckDeadline(ctx context.Context, deadline uint64) (uint64, error) {
	now, err := g.Clock.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: read execution time: %w", ErrExternalProtocol, err)
	}
	if now > deadline {
		return now, fmt.Errorf("%w: now %d, deadline %d", ErrDeadlineExpired, now, deadline)
	}
	return now, nil
}

// Check validates a realized output after the pool call returned.
func (g Guard) Check(ctx context.Context, deadline uint64, realized *big.Int, minOutput *big.Int) (uint64, error) {
	now, err := g.CheckDeadline(ctx, deadline)
	if err != nil {
		return now, err
	}
	if minOutput != nil && realized.Cmp(minOutput) < 0 {
		return now, fmt.Errorf("%w: got %s, want at least %s", ErrSlippageExceeded, realized, minOutput)
	}
	return now, nil
}
