// Package passthrough computes the output paths of files a build copies
// verbatim from its input tree. Those files never pass through a renderer, so
// the host cannot report them as they are written; resolving them up front
// lets them be recorded like any other output.
package passthrough

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/gensweep/internal/fsutil"
)

// Spec is one passthrough copy rule.
type Spec struct {
	// Source is a file, a directory, or a glob pattern, relative to the
	// project root unless absolute.
	Source string `mapstructure:"source" yaml:"source" json:"source"`

	// Target is empty to mirror the input layout under the output root, or a
	// directory below the output root to copy into.
	Target string `mapstructure:"target" yaml:"target,omitempty" json:"target,omitempty"`
}

// ErrEmptySource is returned for a Spec without a Source.
var ErrEmptySource = errors.New("passthrough source is empty")

// IsGlob reports whether s contains glob metacharacters.
func IsGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// Resolver maps passthrough specs to output paths.
type Resolver struct {
	ProjectRoot string // absolute
	InputRoot   string // relative to ProjectRoot unless absolute
	OutputRoot  string // relative to ProjectRoot unless absolute
}

// Resolve returns the output paths spec produces, in ledger form.
func (r Resolver) Resolve(spec Spec) ([]string, error) {
	if strings.TrimSpace(spec.Source) == "" {
		return nil, ErrEmptySource
	}

	var (
		inputs []string
		err    error
	)
	if IsGlob(spec.Source) {
		inputs, err = r.glob(spec.Source)
	} else {
		inputs, err = r.expand(spec.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve passthrough %q: %w", spec.Source, err)
	}

	outputAbs := fsutil.Resolve(r.ProjectRoot, r.OutputRoot)
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		var dest string
		switch {
		case spec.Target == "":
			dest = filepath.Join(outputAbs, r.mirror(in))
		case IsGlob(spec.Source):
			dest = filepath.Join(outputAbs, spec.Target, filepath.Base(in))
		default:
			base := fsutil.Resolve(r.ProjectRoot, spec.Source)
			rel, err := filepath.Rel(base, in)
			if err != nil {
				return nil, fmt.Errorf("resolve passthrough %q: %w", spec.Source, err)
			}
			dest = filepath.Join(outputAbs, spec.Target, rel)
		}
		out = append(out, fsutil.Canonical(r.ProjectRoot, dest))
	}
	return out, nil
}

// ResolveAll resolves every spec and concatenates the results.
func (r Resolver) ResolveAll(specs []Spec) ([]string, error) {
	var out []string
	for _, spec := range specs {
		paths, err := r.Resolve(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

// mirror returns in relative to the input root when it lies inside it, and
// relative to the project root otherwise.
func (r Resolver) mirror(in string) string {
	inputAbs := fsutil.Resolve(r.ProjectRoot, r.InputRoot)
	if fsutil.IsInside(in, inputAbs) {
		if rel, err := filepath.Rel(inputAbs, in); err == nil {
			return rel
		}
	}
	rel, err := filepath.Rel(r.ProjectRoot, in)
	if err != nil {
		return filepath.Base(in)
	}
	return rel
}

// glob matches files (dot files included, case-insensitively) and returns
// them as absolute paths in sorted order.
func (r Resolver) glob(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !path.IsAbs(pattern) && !filepath.IsAbs(pattern) {
		pattern = path.Join(filepath.ToSlash(r.ProjectRoot), pattern)
	}
	base, rest := doublestar.SplitPattern(path.Clean(pattern))

	matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), rest,
		doublestar.WithFilesOnly(),
		doublestar.WithCaseInsensitive(),
	)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// expand returns the file itself, or every file beneath a directory.
func (r Resolver) expand(source string) ([]string, error) {
	abs := fsutil.Resolve(r.ProjectRoot, source)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}
	return fsutil.ListFiles(abs)
}
