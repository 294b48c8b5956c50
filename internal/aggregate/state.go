package aggregate

import (
	"context"
	"fmt"
	"time"

	"stableScope/internal/storage"
)

// StateStore persists the last processed timestamp.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, ts uint64) error
}

// FileStateStore stores state in a local JSON file. Several names can share
// one file; each keeps its own entry.
type FileStateStore struct {
	Path string
	Name string
}

type stateRecord struct {
	LastProcessed uint64 `json:"last_processed_ts"`
	UpdatedAt     string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	records, err := s.read()
	if err != nil {
		return 0, false, err
	}
	rec, ok := records[s.Name]
	if !ok {
		return 0, false, nil
	}
	return rec.LastProcessed, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	records, err := s.read()
	if err != nil {
		return err
	}
	records[s.Name] = stateRecord{
		LastProcessed: ts,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	return storage.WriteJSONFile(s.Path, records)
}

func (s *FileStateStore) read() (map[string]stateRecord, error) {
	records := make(map[string]stateRecord)
	if _, err := storage.ReadJSONFile(s.Path, &records); err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return records, nil
}
