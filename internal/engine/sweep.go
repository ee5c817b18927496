package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/gensweep/internal/fsutil"
	"github.com/roach88/gensweep/internal/report"
	"github.com/roach88/gensweep/internal/store"
)

// Request describes one sweep.
type Request struct {
	// ProjectRoot bounds bulk removal of an abandoned output root.
	ProjectRoot string

	// OutputRoot is the currently configured output directory. Relative
	// values are resolved against ProjectRoot.
	OutputRoot string

	// Generation is the current build generation. Records older than this
	// are stale.
	Generation int64
}

// Result summarizes what a sweep did.
type Result struct {
	Generation     int64  `json:"generation" yaml:"generation"`
	FilesRemoved   int    `json:"files_removed" yaml:"files_removed"`
	DirsRemoved    int    `json:"dirs_removed" yaml:"dirs_removed"`
	RecordsRemoved int    `json:"records_removed" yaml:"records_removed"`
	RootChanged    bool   `json:"root_changed" yaml:"root_changed"`
	OldRoot        string `json:"old_root,omitempty" yaml:"old_root,omitempty"`
	OldRootRemoved bool   `json:"old_root_removed" yaml:"old_root_removed"`
}

// Summary renders the human-readable outcome.
func (r Result) Summary() string {
	if r.RootChanged {
		if r.OldRootRemoved {
			return report.OldRootRemoved(r.OldRoot)
		}
		return report.OldRootKeptWarning
	}
	return report.Summary(r.FilesRemoved, r.DirsRemoved)
}

// Sweeper deletes outputs left over from earlier generations.
type Sweeper struct {
	ledger Ledger
	log    *slog.Logger
}

// NewSweeper creates a sweeper. A nil logger means slog.Default().
func NewSweeper(ledger Ledger, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{ledger: ledger, log: log}
}

// Sweep runs once per build, after every Record for req.Generation has
// returned.
//
// If the output root differs from the one recorded by the previous build, the
// old root is removed in bulk (only when it lies inside the project root),
// stale records are dropped, and the new root is recorded. No per-file sweep
// runs in that case.
//
// Otherwise every record older than req.Generation has its file deleted, its
// empty parent directories pruned up to (not including) the output root, and
// the record itself removed. Per-file failures are absorbed; only ledger
// errors and context cancellation abort the sweep.
func (s *Sweeper) Sweep(ctx context.Context, req Request) (Result, error) {
	res := Result{Generation: req.Generation}
	if req.Generation < 1 {
		return res, fmt.Errorf("sweep: %w", ErrNoGeneration)
	}

	projectRoot, err := filepath.Abs(req.ProjectRoot)
	if err != nil {
		return res, fmt.Errorf("sweep: resolve project root: %w", err)
	}
	outputRoot, err := NormalizePath(projectRoot, req.OutputRoot)
	if err != nil {
		return res, fmt.Errorf("sweep: output root: %w", err)
	}

	// Every mark from this build must be committed before the scan, or a
	// buffered current-generation mark could be shadowed by its stale row.
	if err := s.ledger.Flush(ctx); err != nil {
		return res, fmt.Errorf("sweep: %w", err)
	}

	oldRoot, ok, err := s.recordedRoot(ctx)
	if err != nil {
		return res, fmt.Errorf("sweep: %w", err)
	}

	if ok && oldRoot != outputRoot {
		res.RootChanged = true
		res.OldRoot = oldRoot
		if err := s.abandonRoot(ctx, projectRoot, oldRoot, outputRoot, &res); err != nil {
			return res, fmt.Errorf("sweep: %w", err)
		}
	} else {
		if !ok {
			if err := s.ledger.Put(ctx, outputRootKey, []byte(outputRoot)); err != nil {
				return res, fmt.Errorf("sweep: record output root: %w", err)
			}
		}
		if err := s.sweepFiles(ctx, fsutil.Resolve(projectRoot, outputRoot), projectRoot, &res); err != nil {
			return res, fmt.Errorf("sweep: %w", err)
		}
		s.log.Debug(res.Summary(),
			"generation", res.Generation,
			"files", res.FilesRemoved,
			"dirs", res.DirsRemoved,
		)
	}

	if err := s.ledger.Flush(ctx); err != nil {
		return res, fmt.Errorf("sweep: %w", err)
	}
	return res, nil
}

// RecordedRoot returns the output root recorded by the last completed build.
func (s *Sweeper) RecordedRoot(ctx context.Context) (string, bool, error) {
	return s.recordedRoot(ctx)
}

func (s *Sweeper) recordedRoot(ctx context.Context) (string, bool, error) {
	raw, ok, err := s.ledger.Get(ctx, outputRootKey)
	if err != nil {
		return "", false, fmt.Errorf("read output root: %w", err)
	}
	return string(raw), ok, nil
}

// abandonRoot handles a reconfigured output root.
func (s *Sweeper) abandonRoot(ctx context.Context, projectRoot, oldRoot, newRoot string, res *Result) error {
	oldAbs := fsutil.Resolve(projectRoot, oldRoot)
	newAbs := fsutil.Resolve(projectRoot, newRoot)

	switch {
	case !fsutil.IsInside(oldAbs, projectRoot):
		s.log.Warn(report.OldRootKeptWarning, "old_root", oldRoot, "output_root", newRoot)
	case fsutil.IsInsideOrSame(newAbs, oldAbs):
		// Removing the old root would take this build's output with it.
		s.log.Warn("old output directory contains the new one; leaving it in place",
			"old_root", oldRoot, "output_root", newRoot)
	default:
		if err := os.RemoveAll(oldAbs); err != nil {
			s.log.Warn("failed to remove old output directory", "old_root", oldRoot, "error", err)
		} else {
			res.OldRootRemoved = true
			s.log.Debug(report.OldRootRemoved(oldRoot))
		}
	}

	err := s.ledger.Scan(ctx, PathKeysStart, true, func(e store.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.isStale(e, res.Generation) {
			return nil
		}
		if err := s.ledger.Delete(ctx, e.Key); err != nil {
			return err
		}
		res.RecordsRemoved++
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune records: %w", err)
	}

	if err := s.ledger.Put(ctx, outputRootKey, []byte(newRoot)); err != nil {
		return fmt.Errorf("record output root: %w", err)
	}
	return nil
}

// sweepFiles is the per-file pass for an unchanged output root.
func (s *Sweeper) sweepFiles(ctx context.Context, outputAbs, projectRoot string, res *Result) error {
	err := s.ledger.Scan(ctx, PathKeysStart, true, func(e store.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.isStale(e, res.Generation) {
			return nil
		}

		path := fsutil.Resolve(projectRoot, e.Key)
		if fsutil.IsInside(path, outputAbs) {
			s.log.Debug("Removing", "path", e.Key)
			if fsutil.RemoveFile(path) {
				res.FilesRemoved++
			}
			for _, dir := range fsutil.PruneEmptyDirs(path, outputAbs) {
				s.log.Debug("Removing", "path", dir)
				res.DirsRemoved++
			}
		} else {
			s.log.Warn("stale output is outside the output root; keeping file", "path", e.Key)
		}

		// The mark has done its job whether or not the file was still there.
		if err := s.ledger.Delete(ctx, e.Key); err != nil {
			return err
		}
		res.RecordsRemoved++
		return nil
	})
	if err != nil {
		return fmt.Errorf("sweep files: %w", err)
	}
	return nil
}

// isStale reports whether e belongs to an earlier generation. Unreadable
// records are logged and left alone.
func (s *Sweeper) isStale(e store.Entry, current int64) bool {
	g, err := decodeGeneration(e.Value)
	if err != nil {
		s.log.Warn("unreadable ledger record", "path", e.Key, "error", err)
		return false
	}
	return g < current
}
