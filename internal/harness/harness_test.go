package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gensweep/internal/engine"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(p)
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRun_StalePageRemoved(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/stale_page_removed.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), t.TempDir(), scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"_site/index.html"}, result.Files)
	assert.Equal(t, []engine.Mark{{Path: "_site/index.html", Generation: 2}}, result.Marks)
	require.Len(t, result.Sweeps, 2)
	assert.Equal(t, 1, result.Sweeps[1].FilesRemoved)
	assert.Equal(t, 1, result.Sweeps[1].DirsRemoved)
}

func TestRun_LedgerLivesOutsideProject(t *testing.T) {
	dir := t.TempDir()
	scenario := &Scenario{
		Name:        "ledger_location",
		Description: "the ledger file is never part of the project tree",
		Builds:      []Build{{Outputs: []string{"_site/a.html"}}},
	}

	result, err := Run(context.Background(), dir, scenario)
	require.NoError(t, err)

	assert.Equal(t, []string{"_site/a.html"}, result.Files)
	_, err = os.Stat(filepath.Join(dir, "ledger.db"))
	assert.NoError(t, err)
}

func TestRun_IncompleteBuildLeavesTreeAlone(t *testing.T) {
	scenario := &Scenario{
		Name:        "incomplete_only",
		Description: "a later build that never sweeps removes nothing",
		Builds: []Build{
			{Outputs: []string{"_site/a.html", "_site/b.html"}},
			{Outputs: []string{"_site/a.html"}, Incomplete: true},
		},
	}

	result, err := Run(context.Background(), t.TempDir(), scenario)
	require.NoError(t, err)

	assert.Equal(t, []string{"_site/a.html", "_site/b.html"}, result.Files)
	assert.Equal(t, []engine.Mark{
		{Path: "_site/a.html", Generation: 2},
		{Path: "_site/b.html", Generation: 1},
	}, result.Marks)
	require.Len(t, result.Sweeps, 2)
	assert.Equal(t, engine.Result{}, result.Sweeps[1])
	assert.Equal(t, EventRecord, result.Trace[len(result.Trace)-1].Type)
}

func TestRun_OutputRootCarriesOver(t *testing.T) {
	scenario := &Scenario{
		Name:        "carry_over",
		Description: "a build without output_root keeps the previous one",
		Builds: []Build{
			{OutputRoot: "public", Outputs: []string{"public/a.html"}},
			{Outputs: []string{"public/b.html"}},
		},
	}

	result, err := Run(context.Background(), t.TempDir(), scenario)
	require.NoError(t, err)

	assert.Equal(t, "public", result.RecordedRoot)
	assert.False(t, result.Sweeps[1].RootChanged)
	assert.Equal(t, []string{"public/b.html"}, result.Files)
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expectations",
		Description: "every assertion here is false",
		Builds: []Build{
			{Outputs: []string{"_site/a.html"}},
			{Outputs: []string{"_site/b.html"}},
		},
		Assertions: []Assertion{
			{Type: AssertExists, Paths: []string{"_site/a.html"}},
			{Type: AssertAbsent, Paths: []string{"_site/b.html"}},
			{Type: AssertGeneration, Path: "_site/b.html", Generation: 1},
			{Type: AssertGeneration, Path: "_site/a.html", Generation: 1},
			{Type: AssertUntracked, Paths: []string{"_site/b.html"}},
			{Type: AssertSummary, Build: 2, Equals: "Removed 0 files"},
			{Type: AssertRecordedRoot, Equals: "dist"},
		},
	}

	result, err := Run(context.Background(), t.TempDir(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], "missing: _site/a.html")
	assert.Contains(t, result.Errors[1], "still present: _site/b.html")
	assert.Contains(t, result.Errors[2], "_site/b.html at generation 2")
	assert.Contains(t, result.Errors[3], "_site/a.html is not tracked")
	assert.Contains(t, result.Errors[4], "tracked: _site/b.html")
	assert.Contains(t, result.Errors[5], `"Removed 1 file"`)
	assert.Contains(t, result.Errors[6], "Actual: _site")
}

func TestRun_InvalidOutputFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_output",
		Description: "whitespace is not a path",
		Builds:      []Build{{Outputs: []string{"_site/a.html", " "}}},
	}

	_, err := Run(context.Background(), t.TempDir(), scenario)
	require.Error(t, err)
}
