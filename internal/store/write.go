package store

import (
	"context"
	"fmt"
)

// Put buffers an upsert of key -> value. The write is visible to Get at once
// and becomes durable at the next commit; call Flush to wait for it.
//
// Safe for concurrent use. Writes to the same key are last-write-wins.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	return s.buffer(key, mutation{value: buf})
}

// Delete buffers removal of key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return s.buffer(key, mutation{deleted: true})
}

func (s *Store) buffer(key string, m mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.pending[key] = m
	s.issued++
	return nil
}

// commitPending hands the pending set to SQLite in one transaction.
// Only the writer goroutine calls this.
func (s *Store) commitPending() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.pending
	seq := s.issued
	s.pending = make(map[string]mutation)
	s.inflight = batch
	s.mu.Unlock()

	err := s.apply(batch)

	s.mu.Lock()
	s.inflight = nil
	if err != nil {
		s.failure = err
		// Requeue anything not overwritten since the batch was taken.
		for key, m := range batch {
			if _, ok := s.pending[key]; !ok {
				s.pending[key] = m
			}
		}
	} else {
		s.durable = seq
	}
	close(s.committed)
	s.committed = make(chan struct{})
	s.mu.Unlock()
}

// apply writes one batch inside a single transaction.
func (s *Store) apply(batch map[string]mutation) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("commit batch: prepare upsert: %w", err)
	}
	defer upsert.Close()

	remove, err := tx.PrepareContext(ctx, `DELETE FROM ledger WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("commit batch: prepare delete: %w", err)
	}
	defer remove.Close()

	for key, m := range batch {
		if m.deleted {
			if _, err := remove.ExecContext(ctx, key); err != nil {
				return fmt.Errorf("commit batch: delete %q: %w", key, err)
			}
			continue
		}
		if _, err := upsert.ExecContext(ctx, key, m.value); err != nil {
			return fmt.Errorf("commit batch: put %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	return nil
}

// Flush blocks until every Put and Delete issued before the call is committed
// to disk, the context is cancelled, or the store is closed.
//
// A commit failure is reported by exactly one Flush; the failed batch stays
// buffered and is retried on the next commit.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.issued
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.durable >= target {
			s.mu.Unlock()
			return nil
		}
		if s.failure != nil {
			err := s.failure
			s.failure = nil
			s.mu.Unlock()
			return fmt.Errorf("flush ledger: %w", err)
		}
		ch := s.committed
		s.mu.Unlock()

		s.signal()

		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("flush ledger: %w", ctx.Err())
		case <-s.done:
			s.mu.Lock()
			ok := s.durable >= target
			s.mu.Unlock()
			if ok {
				return nil
			}
			return ErrClosed
		}
	}
}
