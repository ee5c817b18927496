package engine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gensweep/internal/store"
	"github.com/roach88/gensweep/internal/testutil"
)

// fixture is one project directory plus the ledger and session over it.
type fixture struct {
	tree    *testutil.Tree
	ledger  *store.Store
	session *Session
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, outputRoot string) *fixture {
	t.Helper()
	tree := testutil.NewTree(t)
	ledger := testutil.OpenLedger(t, tree.Path(".gensweep"))
	f := &fixture{tree: tree, ledger: ledger, logs: &bytes.Buffer{}}
	f.session = f.reconfigure(t, outputRoot)
	return f
}

// reconfigure builds a fresh session over the same ledger, as a new process
// with a different configuration would.
func (f *fixture) reconfigure(t *testing.T, outputRoot string) *Session {
	t.Helper()
	log := slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := NewSession(context.Background(), f.ledger, Config{
		ProjectRoot: f.tree.Root,
		OutputRoot:  outputRoot,
		Logger:      log,
	})
	require.NoError(t, err)
	f.session = s
	return s
}

// build runs one complete generation that produces paths, writing each file
// before recording it.
func (f *fixture) build(t *testing.T, paths ...string) Result {
	t.Helper()
	ctx := context.Background()
	_, err := f.session.OnBuildStart(ctx)
	require.NoError(t, err)
	for _, p := range paths {
		f.tree.Write(p, p)
		require.NoError(t, f.session.OnOutputProduced(ctx, p))
	}
	res, err := f.session.OnBuildComplete(ctx)
	require.NoError(t, err)
	return res
}

// generationOf reads the committed or buffered mark for key.
func (f *fixture) generationOf(t *testing.T, key string) (int64, bool) {
	t.Helper()
	raw, ok, err := f.ledger.Get(context.Background(), key)
	require.NoError(t, err)
	if !ok {
		return 0, false
	}
	g, err := decodeGeneration(raw)
	require.NoError(t, err)
	return g, true
}

func (f *fixture) pathCount(t *testing.T) int {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.ledger.Flush(ctx))
	n, err := f.ledger.Count(ctx, PathKeysStart)
	require.NoError(t, err)
	return n
}
