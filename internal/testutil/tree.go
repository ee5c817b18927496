package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gensweep/internal/store"
)

// Tree is a throwaway project directory for filesystem tests.
//
// Every path argument is relative to Root unless it is already absolute.
type Tree struct {
	t    *testing.T
	Root string
}

// NewTree creates an empty project directory that is removed when the test
// ends. Root is resolved through symlinks so it compares equal to paths the
// code under test derives with filepath.Abs.
func NewTree(t *testing.T) *Tree {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return &Tree{t: t, Root: root}
}

// Path returns the absolute form of p.
func (tr *Tree) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(tr.Root, filepath.FromSlash(p))
}

// Write creates p with content, making parent directories as needed.
func (tr *Tree) Write(p, content string) string {
	tr.t.Helper()
	abs := tr.Path(p)
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(tr.t, os.WriteFile(abs, []byte(content), 0o644))
	return abs
}

// WriteAll creates every file in files. Keys are slash-separated paths.
func (tr *Tree) WriteAll(files map[string]string) {
	tr.t.Helper()
	for p, content := range files {
		tr.Write(p, content)
	}
}

// Mkdir creates directory p and its parents.
func (tr *Tree) Mkdir(p string) string {
	tr.t.Helper()
	abs := tr.Path(p)
	require.NoError(tr.t, os.MkdirAll(abs, 0o755))
	return abs
}

// Exists reports whether anything is at p.
func (tr *Tree) Exists(p string) bool {
	_, err := os.Lstat(tr.Path(p))
	return err == nil
}

// AssertPresent fails the test if any of paths is missing.
func (tr *Tree) AssertPresent(paths ...string) {
	tr.t.Helper()
	for _, p := range paths {
		assert.True(tr.t, tr.Exists(p), "expected %s to exist", p)
	}
}

// AssertAbsent fails the test if any of paths exists.
func (tr *Tree) AssertAbsent(paths ...string) {
	tr.t.Helper()
	for _, p := range paths {
		assert.False(tr.t, tr.Exists(p), "expected %s to be removed", p)
	}
}

// Files lists regular files under dir as sorted slash-separated paths
// relative to Root.
func (tr *Tree) Files(dir string) []string {
	tr.t.Helper()
	var out []string
	err := filepath.WalkDir(tr.Path(dir), func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(tr.Root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(tr.t, err)
	sort.Strings(out)
	return out
}

// OpenLedger opens a ledger at dir/ledger.db with a flush interval long
// enough that only explicit Flush, Close, or sweeps commit. The store is
// closed when the test ends.
func OpenLedger(t *testing.T, dir string) *store.Store {
	t.Helper()
	s, err := store.OpenWithOptions(filepath.Join(dir, "ledger.db"), store.Options{FlushInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
