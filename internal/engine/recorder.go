package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/gensweep/internal/fsutil"
)

// Recorder marks output paths as live in a generation.
//
// Thread-safety: Record may be called from any number of goroutines. Marks on
// distinct keys never conflict, and marks on the same key within one build
// always carry the same generation.
type Recorder struct {
	ledger      Ledger
	projectRoot string
}

// NewRecorder creates a recorder. projectRoot must be absolute; relative
// output paths are resolved against it.
func NewRecorder(ledger Ledger, projectRoot string) *Recorder {
	return &Recorder{ledger: ledger, projectRoot: projectRoot}
}

// Record upserts outputPath -> generation. Malformed paths are rejected with
// an *InvalidPathError before the ledger is touched.
func (r *Recorder) Record(ctx context.Context, outputPath string, generation int64) error {
	key, err := NormalizePath(r.projectRoot, outputPath)
	if err != nil {
		return err
	}
	if generation < 1 {
		return fmt.Errorf("record %q: %w", key, ErrNoGeneration)
	}
	if err := r.ledger.Put(ctx, key, encodeGeneration(generation)); err != nil {
		return fmt.Errorf("record %q: %w", key, err)
	}
	return nil
}

// Generation returns the generation recorded for outputPath, or false if the
// path is not tracked.
func (r *Recorder) Generation(ctx context.Context, outputPath string) (int64, bool, error) {
	key, err := NormalizePath(r.projectRoot, outputPath)
	if err != nil {
		return 0, false, err
	}
	raw, ok, err := r.ledger.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	g, err := decodeGeneration(raw)
	if err != nil {
		return 0, false, err
	}
	return g, true, nil
}

// NormalizePath validates p and returns its ledger key: cleaned, with
// OS-native separators, relative to projectRoot when inside it and absolute
// otherwise.
func NormalizePath(projectRoot, p string) (string, error) {
	switch {
	case strings.TrimSpace(p) == "":
		return "", &InvalidPathError{Code: ErrCodeEmptyPath, Path: p}
	case strings.IndexByte(p, 0) >= 0:
		return "", &InvalidPathError{Code: ErrCodeNULByte, Path: p}
	case !utf8.ValidString(p):
		return "", &InvalidPathError{Code: ErrCodeInvalidUTF8, Path: p}
	}
	return fsutil.Canonical(projectRoot, p), nil
}
