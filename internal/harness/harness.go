package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/gensweep/internal/engine"
	"github.com/roach88/gensweep/internal/fsutil"
	"github.com/roach88/gensweep/internal/store"
)

// DefaultOutputRoot is used by the first build when it names no output root.
const DefaultOutputRoot = "_site"

// Harness drives one scenario.
type Harness struct {
	projectRoot string
	ledger      *store.Store
	logger      *slog.Logger
}

// Run executes scenario in workDir, which must be empty or absent.
//
// The project tree lives in workDir/project and the ledger in
// workDir/ledger.db, so the ledger never shows up among the outputs. Each
// build opens a fresh session over the same ledger, the way separate host
// processes would.
//
// Execution flow:
// 1. Create the pre-existing files
// 2. For each build: start a generation, write and record every output, sweep
// 3. Collect the final tree and ledger
// 4. Evaluate assertions
func Run(ctx context.Context, workDir string, scenario *Scenario) (*Result, error) {
	if len(scenario.Builds) == 0 {
		return nil, fmt.Errorf("scenario %q has no builds", scenario.Name)
	}
	projectRoot := filepath.Join(workDir, "project")
	if err := os.MkdirAll(projectRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project root: %w", err)
	}

	st, err := store.Open(filepath.Join(workDir, "ledger.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer st.Close()

	h := &Harness{
		projectRoot: projectRoot,
		ledger:      st,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	for _, f := range scenario.Files {
		if err := h.write(f, "existing"); err != nil {
			return nil, err
		}
	}

	result := NewResult()
	outputRoot := DefaultOutputRoot
	var session *engine.Session
	for i, b := range scenario.Builds {
		if b.OutputRoot != "" {
			outputRoot = b.OutputRoot
		}
		session, err = h.runBuild(ctx, i+1, b, outputRoot, result)
		if err != nil {
			return nil, err
		}
	}

	if err := h.collect(ctx, session, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, &AssertionContext{ProjectRoot: projectRoot}) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) runBuild(ctx context.Context, n int, b Build, outputRoot string, result *Result) (*engine.Session, error) {
	session, err := engine.NewSession(ctx, h.ledger, engine.Config{
		ProjectRoot: h.projectRoot,
		OutputRoot:  outputRoot,
		Logger:      h.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build %d: %w", n, err)
	}

	g, err := session.OnBuildStart(ctx)
	if err != nil {
		return nil, fmt.Errorf("build %d: %w", n, err)
	}
	result.addStart(g, filepath.ToSlash(session.OutputRoot()))

	for _, out := range b.Outputs {
		if err := h.write(out, fmt.Sprintf("generation %d", g)); err != nil {
			return nil, fmt.Errorf("build %d: %w", n, err)
		}
		if err := session.OnOutputProduced(ctx, filepath.FromSlash(out)); err != nil {
			return nil, fmt.Errorf("build %d: record %s: %w", n, out, err)
		}
		result.addRecord(g, out)
	}

	if b.Incomplete {
		result.Sweeps = append(result.Sweeps, engine.Result{})
		return session, nil
	}

	res, err := session.OnBuildComplete(ctx)
	if err != nil {
		return nil, fmt.Errorf("build %d: %w", n, err)
	}
	result.addSweep(res)
	result.Sweeps = append(result.Sweeps, res)
	return session, nil
}

// collect snapshots the tree and ledger into result.
func (h *Harness) collect(ctx context.Context, session *engine.Session, result *Result) error {
	files, err := fsutil.ListFiles(h.projectRoot)
	if err != nil {
		return fmt.Errorf("failed to list project files: %w", err)
	}
	result.Files = make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(h.projectRoot, f)
		if err != nil {
			return err
		}
		result.Files = append(result.Files, filepath.ToSlash(rel))
	}
	sort.Strings(result.Files)

	marks, err := session.Marks(ctx)
	if err != nil {
		return err
	}
	for i := range marks {
		marks[i].Path = filepath.ToSlash(marks[i].Path)
	}
	result.Marks = marks
	if result.Marks == nil {
		result.Marks = []engine.Mark{}
	}

	root, _, err := session.Sweeper().RecordedRoot(ctx)
	if err != nil {
		return err
	}
	result.RecordedRoot = filepath.ToSlash(root)
	return nil
}

func (h *Harness) write(p, content string) error {
	abs := filepath.Join(h.projectRoot, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}
