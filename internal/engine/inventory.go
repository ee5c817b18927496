package engine

import (
	"context"
	"fmt"

	"github.com/roach88/gensweep/internal/store"
)

// Mark is one tracked output.
type Mark struct {
	Path       string `json:"path" yaml:"path"`
	Generation int64  `json:"generation" yaml:"generation"`
}

// Marks returns every tracked output in key order. Buffered marks are
// flushed first. Records whose generation cannot be decoded are reported
// with Generation 0.
func (s *Session) Marks(ctx context.Context) ([]Mark, error) {
	if err := s.ledger.Flush(ctx); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	var marks []Mark
	err := s.ledger.Scan(ctx, PathKeysStart, true, func(e store.Entry) error {
		g, err := decodeGeneration(e.Value)
		if err != nil {
			s.log.Warn("unreadable ledger record", "path", e.Key, "error", err)
			g = 0
		}
		marks = append(marks, Mark{Path: e.Key, Generation: g})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}
