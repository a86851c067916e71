package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Checkpoint tracks the last processed block for a set of pools.
type Checkpoint struct {
	LastProcessedBlock uint64   `json:"last_processed_block"`
	Pools              []string `json:"pools"`
	UpdatedAt          string   `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk. A checkpoint written for a
// different pool set is ignored on load.
type CheckpointStore struct {
	path    string
	enabled bool
	pools   []string
}

func NewCheckpointStore(path string, enabled bool, pools []common.Address) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != "", pools: poolKeys(pools)}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if !c.enabled {
		return Checkpoint{}, false, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	if strings.Join(cp.Pools, ",") != strings.Join(c.pools, ",") {
		return cp, false, nil
	}

	return cp, true, nil
}

func (c *CheckpointStore) Save(lastProcessed uint64) error {
	if !c.enabled {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.Marshal(Checkpoint{
		LastProcessedBlock: lastProcessed,
		Pools:              c.pools,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}

func poolKeys(pools []common.Address) []string {
	keys := make([]string, 0, len(pools))
	for _, pool := range pools {
		keys = append(keys, strings.ToLower(pool.Hex()))
	}
	sort.Strings(keys)
	return keys
}
