package sim

import (
	"fmt"
	"time"

	"stableScope/internal/storage"
)

// Checkpoint records the last script line applied to a pool and the event
// sequence it left behind. A resumed run must start from a pool at Seq.
type Checkpoint struct {
	Pool      string `json:"pool"`
	LastLine  int    `json:"last_line"`
	Seq       uint64 `json:"seq"`
	Timestamp uint64 `json:"timestamp"`
	UpdatedAt string `json:"updated_at"`
}

type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

// Load returns the checkpoint for pool. A checkpoint written for another
// pool is an error rather than a fresh start.
func (c *CheckpointStore) Load(pool string) (Checkpoint, bool, error) {
	if !c.enabled {
		return Checkpoint{}, false, nil
	}
	var cp Checkpoint
	found, err := storage.ReadJSONFile(c.path, &cp)
	if err != nil || !found {
		return Checkpoint{}, false, err
	}
	if cp.Pool != pool {
		return Checkpoint{}, false, fmt.Errorf("checkpoint %s belongs to pool %q, not %q", c.path, cp.Pool, pool)
	}
	return cp, true, nil
}

func (c *CheckpointStore) Save(cp Checkpoint) error {
	if !c.enabled {
		return nil
	}
	cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return storage.WriteJSONFile(c.path, cp)
}
