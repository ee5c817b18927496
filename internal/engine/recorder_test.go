package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gensweep/internal/testutil"
)

func TestNormalizePath(t *testing.T) {
	root := filepath.FromSlash("/proj")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"relative", "_site/a.html", filepath.FromSlash("_site/a.html")},
		{"dot segments", "./_site/./sub/../a.html", filepath.FromSlash("_site/a.html")},
		{"absolute inside", "/proj/_site/a.html", filepath.FromSlash("_site/a.html")},
		{"root itself", "/proj", "."},
		{"outside", "/elsewhere/a.html", filepath.FromSlash("/elsewhere/a.html")},
		{"escapes via dotdot", "../other/a.html", filepath.FromSlash("/other/a.html")},
		{"dotdot-like child", "..foo/a.html", filepath.FromSlash("..foo/a.html")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePath(root, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePath_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code PathErrorCode
	}{
		{"empty", "", ErrCodeEmptyPath},
		{"whitespace", "  \t", ErrCodeEmptyPath},
		{"nul byte", "_site/a\x00.html", ErrCodeNULByte},
		{"invalid utf8", "_site/\xff.html", ErrCodeInvalidUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizePath("/proj", tt.in)
			require.Error(t, err)
			assert.True(t, IsInvalidPath(err))

			var pe *InvalidPathError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.code, pe.Code)
		})
	}
}

func TestRecorder_RecordIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tree := testutil.NewTree(t)
	ledger := testutil.OpenLedger(t, tree.Root)
	rec := NewRecorder(ledger, tree.Root)

	require.NoError(t, rec.Record(ctx, "_site/a.html", 3))
	require.NoError(t, rec.Record(ctx, "_site/a.html", 3))
	require.NoError(t, rec.Record(ctx, tree.Path("_site/a.html"), 3))

	g, ok, err := rec.Generation(ctx, "_site/a.html")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), g)

	require.NoError(t, ledger.Flush(ctx))
	n, err := ledger.Count(ctx, PathKeysStart)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_LaterGenerationWins(t *testing.T) {
	ctx := context.Background()
	tree := testutil.NewTree(t)
	rec := NewRecorder(testutil.OpenLedger(t, tree.Root), tree.Root)

	require.NoError(t, rec.Record(ctx, "_site/a.html", 1))
	require.NoError(t, rec.Record(ctx, "_site/a.html", 2))

	g, ok, err := rec.Generation(ctx, "_site/a.html")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), g)
}

func TestRecorder_UntrackedPath(t *testing.T) {
	tree := testutil.NewTree(t)
	rec := NewRecorder(testutil.OpenLedger(t, tree.Root), tree.Root)

	_, ok, err := rec.Generation(context.Background(), "_site/none.html")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecorder_InvalidPathLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	tree := testutil.NewTree(t)
	ledger := testutil.OpenLedger(t, tree.Root)
	rec := NewRecorder(ledger, tree.Root)

	for _, p := range []string{"", " ", "a\x00b", "\xfe"} {
		err := rec.Record(ctx, p, 1)
		assert.True(t, IsInvalidPath(err), "path %q", p)
	}

	require.NoError(t, ledger.Flush(ctx))
	n, err := ledger.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRecorder_RejectsGenerationZero(t *testing.T) {
	tree := testutil.NewTree(t)
	rec := NewRecorder(testutil.OpenLedger(t, tree.Root), tree.Root)

	err := rec.Record(context.Background(), "_site/a.html", 0)
	assert.ErrorIs(t, err, ErrNoGeneration)
}

func TestRecorder_ConcurrentMarksVisibleBeforeFlush(t *testing.T) {
	ctx := context.Background()
	tree := testutil.NewTree(t)
	ledger := testutil.OpenLedger(t, tree.Root)
	rec := NewRecorder(ledger, tree.Root)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, rec.Record(ctx, fmt.Sprintf("_site/p%03d.html", i), 5))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		g, ok, err := rec.Generation(ctx, fmt.Sprintf("_site/p%03d.html", i))
		require.NoError(t, err)
		require.True(t, ok, "p%03d missing", i)
		assert.Equal(t, int64(5), g)
	}

	require.NoError(t, ledger.Flush(ctx))
	count, err := ledger.Count(ctx, PathKeysStart)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}
