package engine

import (
	"context"
	"fmt"
	"sync"
)

// Sequencer owns the generation counter.
//
// The counter starts at 0, so the first build is generation 1. It never goes
// backwards: a build that fails after Increment still consumes its number.
type Sequencer struct {
	ledger Ledger
	mu     sync.Mutex
}

// NewSequencer creates a sequencer over the given ledger.
func NewSequencer(ledger Ledger) *Sequencer {
	return &Sequencer{ledger: ledger}
}

// Current returns the latest generation without advancing it.
// Returns 0 if no build has ever started.
func (s *Sequencer) Current(ctx context.Context) (int64, error) {
	raw, ok, err := s.ledger.Get(ctx, generationKey)
	if err != nil {
		return 0, fmt.Errorf("read generation: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return decodeGeneration(raw)
}

// Increment advances the counter by one and returns the new generation.
// The new value is flushed before returning so that no mark can reference a
// generation the ledger has not durably recorded.
func (s *Sequencer) Increment(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	next := current + 1

	if err := s.ledger.Put(ctx, generationKey, encodeGeneration(next)); err != nil {
		return 0, fmt.Errorf("write generation: %w", err)
	}
	if err := s.ledger.Flush(ctx); err != nil {
		return 0, fmt.Errorf("write generation: %w", err)
	}
	return next, nil
}
