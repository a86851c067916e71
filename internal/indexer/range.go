package indexer

import "fmt"

// BlockRange is an inclusive block interval.
type BlockRange struct {
	From uint64
	To   uint64
}

// Blocks returns the number of blocks covered by r.
func (r BlockRange) Blocks() uint64 {
	return r.To - r.From + 1
}

// SplitRange cuts [from, to] into consecutive ranges of at most size blocks.
func SplitRange(from, to, size uint64) ([]BlockRange, error) {
	switch {
	case size == 0:
		return nil, fmt.Errorf("batch size must be greater than zero")
	case to < from:
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]BlockRange, 0, (to-from)/size+1)
	for start := from; ; start += size {
		end := to
		if to-start >= size {
			end = start + size - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
	}
}

// resumeFrom moves from past a checkpointed block when the checkpoint lies
// inside the requested range.
func resumeFrom(from uint64, cp Checkpoint, ok bool) uint64 {
	if ok && cp.LastProcessedBlock >= from {
		return cp.LastProcessedBlock + 1
	}
	return from
}
