package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// createTestStore opens a fresh ledger in a temp dir.
// The long flush interval keeps commits under the test's control.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := OpenWithOptions(path, Options{FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// committedValue reads key straight from SQLite, bypassing the write buffer.
func committedValue(t *testing.T, s *Store, key string) (string, bool) {
	t.Helper()
	var value []byte
	err := s.db.QueryRowContext(context.Background(), `SELECT value FROM ledger WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return string(value), true
}
