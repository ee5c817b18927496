package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// scanPageSize bounds how many rows Scan holds before releasing the
// connection back to the writer goroutine.
const scanPageSize = 256

// Entry is one committed ledger row.
type Entry struct {
	Key   string
	Value []byte
}

// Get returns the value stored under key. Buffered writes that have not been
// committed yet are visible. The bool is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false, ErrClosed
	}
	if m, ok := s.pending[key]; ok {
		s.mu.Unlock()
		return m.bytes()
	}
	if m, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		return m.bytes()
	}
	s.mu.Unlock()

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM ledger WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (m mutation) bytes() ([]byte, bool, error) {
	if m.deleted {
		return nil, false, nil
	}
	out := make([]byte, len(m.value))
	copy(out, m.value)
	return out, true, nil
}

// Scan visits committed entries in ascending key order starting at start.
// When inclusive is false the start key itself is skipped.
//
// Rows are read a page at a time and the connection is released before fn
// runs, so fn may call Put and Delete. Buffered writes are not visible; call
// Flush first to include them. Returning an error from fn stops the scan and
// that error is returned unchanged.
func (s *Store) Scan(ctx context.Context, start string, inclusive bool, fn func(Entry) error) error {
	cursor := start
	first := true

	for {
		op := ">"
		if first && inclusive {
			op = ">="
		}
		page, err := s.readPage(ctx, op, cursor)
		if err != nil {
			return err
		}

		for _, e := range page {
			if err := fn(e); err != nil {
				return err
			}
		}

		if len(page) < scanPageSize {
			return nil
		}
		cursor = page[len(page)-1].Key
		first = false
	}
}

func (s *Store) readPage(ctx context.Context, op, cursor string) ([]Entry, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	// op is one of two literals chosen by Scan.
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value
		FROM ledger
		WHERE key `+op+` ?
		ORDER BY key COLLATE BINARY ASC
		LIMIT ?
	`, cursor, scanPageSize)
	if err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}
	defer rows.Close()

	page := make([]Entry, 0, scanPageSize)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		page = append(page, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return page, nil
}

// Count returns the number of committed entries with key >= start.
func (s *Store) Count(ctx context.Context, start string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger WHERE key >= ?`, start).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}
