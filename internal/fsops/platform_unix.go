//go:build !windows

package fsops

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"syscall"

	"rmfast/internal/graph"
)

// unixPlatform implements Platform with plain POSIX calls. Unlink semantics
// are already immediate here, so no workaround layer is needed.
type unixPlatform struct{}

// NewPlatform returns the deletion primitive for this OS.
func NewPlatform() Platform {
	return unixPlatform{}
}

func (unixPlatform) Remove(path string, kind graph.Kind) error {
	// os.Remove maps to unlink for files and symlinks, rmdir for
	// directories; the scheduler guarantees directories are empty by the
	// time they get here.
	return os.Remove(path)
}

func (unixPlatform) ClearProtective(path string, attr graph.Attr) error {
	if attr&graph.AttrReadOnly == 0 {
		return nil
	}
	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}
	// Chmod follows symlinks; a link itself carries no mode worth fixing.
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	return os.Chmod(path, fi.Mode().Perm()|0o200)
}

func (unixPlatform) ExtendedPath(path string) string {
	// No legacy length limit to work around.
	return path
}

func (unixPlatform) Attributes(fi os.FileInfo) graph.Attr {
	var attr graph.Attr
	if fi.Mode()&os.ModeSymlink == 0 && fi.Mode().Perm()&0o200 == 0 {
		attr |= graph.AttrReadOnly
	}
	if strings.HasPrefix(fi.Name(), ".") {
		attr |= graph.AttrHidden
	}
	return attr
}

func (unixPlatform) Classify(err error) FailKind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return FailAccessDenied
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.ETXTBSY):
		return FailLocked
	default:
		return FailIO
	}
}
