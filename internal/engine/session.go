package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
)

// Hooks is the seam between a host build pipeline and the collector.
// Hosts adapt their own lifecycle events to these three calls.
type Hooks interface {
	// OnBuildStart begins a new generation and returns its number.
	OnBuildStart(ctx context.Context) (int64, error)

	// OnOutputProduced marks outputPath as live in the current generation.
	// Safe to call concurrently between OnBuildStart and OnBuildComplete.
	OnOutputProduced(ctx context.Context, outputPath string) error

	// OnBuildComplete sweeps outputs left over from earlier generations.
	OnBuildComplete(ctx context.Context) (Result, error)
}

// Config configures a Session.
type Config struct {
	// ProjectRoot is the directory bulk deletions are confined to.
	// Relative values resolve against the working directory. Default ".".
	ProjectRoot string

	// OutputRoot is the build output directory. Default "_site".
	OutputRoot string

	// Logger receives sweep diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Session is the single per-process collector instance. It owns the current
// generation that every component shares.
type Session struct {
	projectRoot string
	outputRoot  string

	ledger    Ledger
	sequencer *Sequencer
	recorder  *Recorder
	sweeper   *Sweeper
	log       *slog.Logger

	generation atomic.Int64
}

var _ Hooks = (*Session)(nil)

// NewSession builds a session over ledger. If the ledger has never seen an
// output root, the configured one is recorded so that the first build does
// not look like a reconfiguration.
func NewSession(ctx context.Context, ledger Ledger, cfg Config) (*Session, error) {
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = "."
	}
	if cfg.OutputRoot == "" {
		cfg.OutputRoot = "_site"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	projectRoot, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	outputRoot, err := NormalizePath(projectRoot, cfg.OutputRoot)
	if err != nil {
		return nil, fmt.Errorf("output root: %w", err)
	}

	s := &Session{
		projectRoot: projectRoot,
		outputRoot:  outputRoot,
		ledger:      ledger,
		sequencer:   NewSequencer(ledger),
		recorder:    NewRecorder(ledger, projectRoot),
		sweeper:     NewSweeper(ledger, log),
		log:         log,
	}

	if _, ok, err := s.sweeper.RecordedRoot(ctx); err != nil {
		return nil, err
	} else if !ok {
		if err := ledger.Put(ctx, outputRootKey, []byte(outputRoot)); err != nil {
			return nil, fmt.Errorf("record output root: %w", err)
		}
	}

	return s, nil
}

// ProjectRoot returns the absolute project root.
func (s *Session) ProjectRoot() string { return s.projectRoot }

// OutputRoot returns the output root in ledger form.
func (s *Session) OutputRoot() string { return s.outputRoot }

// Generation returns the session's current generation, 0 before a build.
func (s *Session) Generation() int64 { return s.generation.Load() }

// Sequencer exposes the generation counter.
func (s *Session) Sequencer() *Sequencer { return s.sequencer }

// Recorder exposes the path recorder.
func (s *Session) Recorder() *Recorder { return s.recorder }

// Sweeper exposes the sweep engine.
func (s *Session) Sweeper() *Sweeper { return s.sweeper }

// Resume adopts the ledger's latest generation as current. Used when the
// record and sweep phases run in a different process than OnBuildStart.
func (s *Session) Resume(ctx context.Context) (int64, error) {
	g, err := s.sequencer.Current(ctx)
	if err != nil {
		return 0, err
	}
	if g < 1 {
		return 0, ErrNoGeneration
	}
	s.generation.Store(g)
	return g, nil
}

// OnBuildStart implements Hooks.
func (s *Session) OnBuildStart(ctx context.Context) (int64, error) {
	g, err := s.sequencer.Increment(ctx)
	if err != nil {
		return 0, fmt.Errorf("start build: %w", err)
	}
	s.generation.Store(g)
	s.log.Debug("build started", "generation", g)
	return g, nil
}

// OnOutputProduced implements Hooks.
func (s *Session) OnOutputProduced(ctx context.Context, outputPath string) error {
	g := s.generation.Load()
	if g < 1 {
		return ErrNoGeneration
	}
	return s.recorder.Record(ctx, outputPath, g)
}

// OnBuildComplete implements Hooks.
func (s *Session) OnBuildComplete(ctx context.Context) (Result, error) {
	g := s.generation.Load()
	if g < 1 {
		return Result{}, ErrNoGeneration
	}
	return s.sweeper.Sweep(ctx, Request{
		ProjectRoot: s.projectRoot,
		OutputRoot:  s.outputRoot,
		Generation:  g,
	})
}
