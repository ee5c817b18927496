// Package fsutil holds the path arithmetic that bounds every destructive
// operation: resolving paths against a base, relative-path containment, and
// pruning of empty directories below a root.
package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve returns p as a clean absolute path, joining it onto base when p is
// relative. base must be absolute.
func Resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// Canonical returns the ledger form of p: relative to base when p resolves
// inside (or to) base, otherwise absolute. Equivalent spellings of one file
// always produce the same string.
func Canonical(base, p string) string {
	abs := Resolve(base, p)
	if IsInsideOrSame(abs, base) {
		rel, err := filepath.Rel(base, abs)
		if err == nil {
			return rel
		}
	}
	return abs
}

// IsInside reports whether p lies strictly inside dir.
// Both paths must be absolute (or both relative to the same base).
func IsInside(p, dir string) bool {
	rel, ok := relative(p, dir)
	return ok && rel != "."
}

// IsInsideOrSame reports whether p is dir or lies inside it.
func IsInsideOrSame(p, dir string) bool {
	_, ok := relative(p, dir)
	return ok
}

// relative checks rel against "..", "../x" and absolute results rather than
// a bare ".." prefix, because a name such as "..foo" is a legal child.
func relative(p, dir string) (string, bool) {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return "", false
	}
	if rel == "" || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if filepath.IsAbs(rel) {
		return "", false
	}
	return rel, true
}

// RemoveFile deletes the regular file or symlink at p. Directories are left
// alone. Reports whether something was removed.
func RemoveFile(p string) bool {
	info, err := os.Lstat(p)
	if err != nil || info.IsDir() {
		return false
	}
	return os.Remove(p) == nil
}

// PruneEmptyDirs removes the parent directory of p if it is empty, then its
// parent, and so on, while each candidate lies strictly inside root. root
// itself is never removed. Returns the directories removed, deepest first.
func PruneEmptyDirs(p, root string) []string {
	var removed []string
	dir := filepath.Dir(p)
	for IsInside(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		// os.Remove refuses a directory that gained an entry since ReadDir.
		if err := os.Remove(dir); err != nil {
			break
		}
		removed = append(removed, dir)
		dir = filepath.Dir(dir)
	}
	return removed
}

// ListFiles returns every non-directory path beneath dir, joined onto dir.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
