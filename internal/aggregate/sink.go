package aggregate

import (
	"context"

	"stableScope/internal/model"
	"stableScope/internal/storage"
)

// JSONLSink writes window metrics as JSON lines.
type JSONLSink struct {
	Writer *storage.JSONLWriter
}

func (s *JSONLSink) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	for _, m := range metrics {
		if err := s.Writer.Write(m); err != nil {
			return err
		}
	}
	return nil
}
