package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath      = errors.New("invalid path")
	ErrFilesystemRoot   = errors.New("filesystem root")
	ErrHomeDirectory    = errors.New("home directory")
	ErrProtectedPath    = errors.New("protected path")
	ErrCurrentDirectory = errors.New("working directory inside target")
	ErrSymlinkEscape    = errors.New("symlink resolves to protected path")
)

// Validator enforces the safety contract for every deletion root. A root
// that fails validation aborts the whole job before any traversal begins.
type Validator struct {
	Protected []string
}

// NewValidator creates a validator with the built-in denylist plus any
// extra protected paths from configuration.
func NewValidator(extraProtected []string) *Validator {
	return &Validator{
		Protected: defaultProtected(extraProtected),
	}
}

// Validate is the single source of truth for whether a root may be deleted.
// It performs read-only checks (stat and symlink resolution) and returns a
// typed error on any violation.
func (v *Validator) Validate(path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if err := v.check(p); err != nil {
		return err
	}

	// A symlink (or a symlinked ancestor) may point the target somewhere the
	// literal path check would never see. Resolve and re-check.
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		// Nonexistent targets are allowed through: deleting them is a no-op.
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	resolved = filepath.Clean(resolved)
	if resolved != p {
		if err := v.check(resolved); err != nil {
			return ErrSymlinkEscape
		}
	}

	return nil
}

func (v *Validator) check(p string) error {
	if IsFilesystemRoot(p) {
		return ErrFilesystemRoot
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if fold(p) == fold(filepath.Clean(home)) {
			return ErrHomeDirectory
		}
	}
	if isExactProtected(p) || IsProtectedPath(p, v.Protected) {
		return ErrProtectedPath
	}
	// Deleting the directory the process runs from leaves it with a dangling
	// cwd and is almost certainly a mistyped root.
	if wd, err := os.Getwd(); err == nil {
		wd = fold(filepath.Clean(wd))
		if fp := fold(p); wd == fp || hasPathPrefix(wd, fp) {
			return ErrCurrentDirectory
		}
	}
	return nil
}

// NormalizePath converts path to absolute, cleaned form.
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// IsFilesystemRoot reports whether p is "/" or a drive root like "C:\".
// A path is a root exactly when it is its own parent.
func IsFilesystemRoot(p string) bool {
	p = filepath.Clean(p)
	return filepath.Dir(p) == p
}

// isExactProtected reports whether p names one of the exact-match built-ins.
// Unlike the subtree denylist, entries below these stay deletable.
func isExactProtected(p string) bool {
	fp := fold(filepath.Clean(p))
	for _, prot := range exactProtected {
		if fp == fold(filepath.Clean(prot)) {
			return true
		}
	}
	return false
}

// IsProtectedPath checks whether path is a protected directory or lives
// inside one.
func IsProtectedPath(path string, protected []string) bool {
	p := fold(filepath.Clean(path))
	for _, prot := range protected {
		if hasPathPrefix(p, fold(filepath.Clean(prot))) {
			return true
		}
	}
	return false
}

// hasPathPrefix reports whether path equals prefix or is beneath it. Both
// arguments must already be cleaned and case-folded.
func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// defaultProtected returns the built-in denylist plus any extras. The exact
// set is policy, not mechanism; configuration can extend it.
func defaultProtected(extra []string) []string {
	out := make([]string, 0, len(systemProtected)+len(extra))
	out = append(out, systemProtected...)
	for _, p := range extra {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}
