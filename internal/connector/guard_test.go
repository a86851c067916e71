package connector

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardDeadline(t *testing.T) {
	ctx := context.Background()
	guard := Guard{Clock: stubClock{now: 1000}}

	_, err := guard.Check(ctx, 1000, big.NewInt(1), big.NewInt(1))
	require.NoError(t, err, "deadline equal to now passes")

	_, err = guard.Check(ctx, 999, big.NewInt(100), big.NewInt(0))
	require.Equal(t, "DeadlineExpired", KindOf(err))

	// deadline wins over slippage
	_, err = guard.Check(ctx, 999, big.NewInt(0), big.NewInt(100))
	require.Equal(t, "DeadlineExpired", KindOf(err))
}

func TestGuardSlippage(t *testing.T) {
	ctx := context.Background()
	guard := Guard{Clock: stubClock{now: 1000}}

	_, err := guard.Check(ctx, 2000, big.NewInt(99), big.NewInt(100))
	require.Equal(t, "SlippageExceeded", KindOf(err))

	now, err := guard.Check(ctx, 2000, big.NewInt(100), big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, uint64(1000), now)

	_, err = guard.Check(ctx, 2000, big.NewInt(1), nil)
	require.NoError(t, err)
}

func TestGuardClockFailure(t *testing.T) {
	_, err := Guard{Clock: stubClock{err: errBackend}}.CheckDeadline(context.Background(), 10)
	require.Equal(t, "ExternalProtocolError", KindOf(err))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, "", KindOf(nil))
	require.Equal(t, "Unknown", KindOf(errBackend))
}
