package connector

import (
	"fmt"
	"math/big"
)

// Memory holds values chained between the actions of one cast.
// Slot 0 means "none": writes to it are dropped and it is never read.
type Memory struct {
	slots map[uint64]*big.Int
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[uint64]*big.Int)}
}

// Set stores value under slot, replacing any earlier value.
func (m *Memory) Set(slot uint64, value *big.Int) {
	if slot == 0 || value == nil {
		return
	}
	m.slots[slot] = new(big.Int).Set(value)
}

// Lookup returns the value for slot and whether it was ever written.
func (m *Memory) Lookup(slot uint64) (*big.Int, bool) {
	value, ok := m.slots[slot]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(value), true
}

// Get returns the value for slot or ErrNoChainedValue when unset.
func (m *Memory) Get(slot uint64) (*big.Int, error) {
	value, ok := m.Lookup(slot)
	if !ok {
		return nil, fmt.Errorf("%w: slot %d", ErrNoChainedValue, slot)
	}
	return value, nil
}

// Len returns the number of written slots.
func (m *Memory) Len() int {
	return len(m.slots)
}
