package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Empty database (pre-migration)
// 1 - ledger table keyed by BINARY-collated TEXT
const currentSchemaVersion = 1

// DefaultFlushInterval is how long buffered writes may wait before the writer
// goroutine commits them without an explicit Flush.
const DefaultFlushInterval = 50 * time.Millisecond

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("ledger store is closed")

// Options tunes the asynchronous writer.
type Options struct {
	// FlushInterval bounds how long a buffered write stays uncommitted.
	// Zero means DefaultFlushInterval.
	FlushInterval time.Duration
}

// mutation is the latest buffered state of one key.
type mutation struct {
	value   []byte
	deleted bool
}

// Store is a durable, ordered key-value ledger backed by SQLite.
//
// Thread-safety: all methods are safe for concurrent use.
type Store struct {
	db *sql.DB

	mu        sync.Mutex
	pending   map[string]mutation // buffered, not yet handed to the writer
	inflight  map[string]mutation // being committed right now
	issued    uint64              // sequence of the newest buffered write
	durable   uint64              // sequence of the newest committed write
	committed chan struct{}       // closed and replaced after every commit attempt
	failure   error               // last commit error, reported once by Flush
	closed    bool

	kick   chan struct{} // buffered(1), coalesces flush requests
	stop   chan struct{}
	done   chan struct{}
	ticker *time.Ticker
}

// Open creates or opens the ledger database at path with default options.
// Parent directories are created as needed.
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, Options{})
}

// OpenWithOptions creates or opens the ledger database at path.
//
// The database is configured with:
//   - WAL mode so scans do not block the writer goroutine
//   - FULL synchronous mode so a resolved Flush is durable
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - opening an existing ledger keeps its records.
func OpenWithOptions(path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	interval := opts.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	s := &Store{
		db:        db,
		pending:   make(map[string]mutation),
		committed: make(chan struct{}),
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		ticker:    time.NewTicker(interval),
	}
	go s.run()
	return s, nil
}

// Close commits outstanding writes, stops the writer goroutine and closes the
// database. Calling Close more than once is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done

	s.mu.Lock()
	err := s.failure
	s.failure = nil
	s.mu.Unlock()

	if closeErr := s.db.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// run is the single writer. It owns every transaction against the ledger.
func (s *Store) run() {
	defer close(s.done)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.kick:
			s.commitPending()
		case <-s.ticker.C:
			s.commitPending()
		case <-s.stop:
			// Drain: a failed batch is requeued, so retry once before giving up.
			s.commitPending()
			s.commitPending()
			return
		}
	}
}

// signal asks the writer to commit without waiting for the ticker.
func (s *Store) signal() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("ledger schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if version == currentSchemaVersion {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRowContext(context.Background(), query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
