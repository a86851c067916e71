package connector

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryUnsetIsDistinctFromZero(t *testing.T) {
	mem := NewMemory()

	_, ok := mem.Lookup(7)
	require.False(t, ok)
	_, err := mem.Get(7)
	require.True(t, errors.Is(err, ErrNoChainedValue))

	mem.Set(7, big.NewInt(0))
	value, err := mem.Get(7)
	require.NoError(t, err)
	require.Zero(t, value.Sign())
}

func TestMemoryLastWriteWins(t *testing.T) {
	mem := NewMemory()
	mem.Set(3, big.NewInt(10))
	mem.Set(3, big.NewInt(20))

	value, err := mem.Get(3)
	require.NoError(t, err)
	require.Equal(t, int64(20), value.Int64())
	require.Equal(t, 1, mem.Len())
}

func TestMemorySlotZeroIsIgnored(t *testing.T) {
	mem := NewMemory()
	mem.Set(0, big.NewInt(5))
	mem.Set(4, nil)
	require.Equal(t, 0, mem.Len())
}

func TestMemoryCopies(t *testing.T) {
	mem := NewMemory()
	in := big.NewInt(9)
	mem.Set(1, in)
	in.SetInt64(100)

	out, err := mem.Get(1)
	require.NoError(t, err)
	require.Equal(t, int64(9), out.Int64())

	out.SetInt64(50)
	again, _ := mem.Get(1)
	require.Equal(t, int64(9), again.Int64())
}
