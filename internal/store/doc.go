// Package store provides the SQLite-backed ledger that maps output paths to
// build generations.
//
// The ledger is a single ordered key-value table:
//   - Keys are TEXT compared with BINARY collation (byte order)
//   - Values are opaque BLOBs; callers own the encoding
//   - Reserved metadata keys begin with 0x00 and sort before every path key
//
// # Write Path
//
// Put and Delete never touch SQLite directly. They land in an in-memory
// pending set that a single writer goroutine drains into one transaction per
// batch, either on a timer or when Flush is called. This keeps concurrent
// recorders from contending on the SQLite write lock and turns thousands of
// marks into a handful of commits.
//
//   - Get observes buffered writes immediately
//   - Scan observes committed state only
//   - Flush returns once every write issued before the call is committed
//
// # Database Configuration
//
//   - WAL mode: readers never block the writer goroutine
//   - synchronous=FULL: a resolved Flush survives power loss
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - One connection: SQLite allows a single writer anyway
package store
