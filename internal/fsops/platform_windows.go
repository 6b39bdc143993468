//go:build windows

package fsops

import (
	"errors"
	"os"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"rmfast/internal/graph"
)

// windowsPlatform deletes through FileDispositionInfoEx with POSIX
// semantics, so a successful delete removes the name from the namespace
// immediately even while other processes hold open handles. The native
// DeleteFile path only marks the file for deletion, which breaks the
// bottom-up invariant: a directory can look non-empty long after every
// child was "deleted".
type windowsPlatform struct{}

// NewPlatform returns the deletion primitive for this OS.
func NewPlatform() Platform {
	return windowsPlatform{}
}

// fileDispositionInfoEx mirrors FILE_DISPOSITION_INFO_EX.
type fileDispositionInfoEx struct {
	Flags uint32
}

func (windowsPlatform) Remove(path string, kind graph.Kind) error {
	wide, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}

	var openFlags uint32 = windows.FILE_FLAG_OPEN_REPARSE_POINT
	if kind == graph.Dir {
		openFlags |= windows.FILE_FLAG_BACKUP_SEMANTICS
	}

	h, err := windows.CreateFile(
		wide,
		windows.DELETE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		openFlags,
		0,
	)
	if err != nil {
		return err
	}

	flags := uint32(windows.FILE_DISPOSITION_DELETE | windows.FILE_DISPOSITION_POSIX_SEMANTICS)
	if kind != graph.Dir {
		flags |= windows.FILE_DISPOSITION_IGNORE_READONLY_ATTRIBUTE
	}
	info := fileDispositionInfoEx{Flags: flags}

	err = windows.SetFileInformationByHandle(
		h,
		windows.FileDispositionInfoEx,
		(*byte)(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	windows.CloseHandle(h)
	if err == nil {
		return nil
	}

	// Pre-1607 kernels and non-NTFS volumes reject POSIX disposition; fall
	// back to the classic delete there.
	if errors.Is(err, windows.ERROR_INVALID_PARAMETER) || errors.Is(err, windows.ERROR_NOT_SUPPORTED) {
		return os.Remove(path)
	}
	return err
}

func (windowsPlatform) ClearProtective(path string, attr graph.Attr) error {
	wide, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	cur, err := windows.GetFileAttributes(wide)
	if err != nil {
		return err
	}

	var clear uint32
	if attr&graph.AttrReadOnly != 0 {
		clear |= windows.FILE_ATTRIBUTE_READONLY
	}
	if attr&graph.AttrHidden != 0 {
		clear |= windows.FILE_ATTRIBUTE_HIDDEN
	}
	if attr&graph.AttrSystem != 0 {
		clear |= windows.FILE_ATTRIBUTE_SYSTEM
	}
	next := cur &^ clear
	if next == cur {
		return nil
	}
	if next == 0 {
		next = windows.FILE_ATTRIBUTE_NORMAL
	}
	return windows.SetFileAttributes(wide, next)
}

// ExtendedPath rewrites an absolute path into \\?\ form so deeply nested
// trees (dependency-manager caches routinely blow past MAX_PATH) are never
// rejected on length alone.
func (windowsPlatform) ExtendedPath(path string) string {
	if strings.HasPrefix(path, `\\?\`) {
		return path
	}
	if strings.HasPrefix(path, `\\`) {
		return `\\?\UNC\` + path[2:]
	}
	return `\\?\` + path
}

func (windowsPlatform) Attributes(fi os.FileInfo) graph.Attr {
	sys, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return 0
	}
	var attr graph.Attr
	if sys.FileAttributes&windows.FILE_ATTRIBUTE_READONLY != 0 {
		attr |= graph.AttrReadOnly
	}
	if sys.FileAttributes&windows.FILE_ATTRIBUTE_HIDDEN != 0 {
		attr |= graph.AttrHidden
	}
	if sys.FileAttributes&windows.FILE_ATTRIBUTE_SYSTEM != 0 {
		attr |= graph.AttrSystem
	}
	return attr
}

func (windowsPlatform) Classify(err error) FailKind {
	switch {
	case errors.Is(err, windows.ERROR_SHARING_VIOLATION),
		errors.Is(err, windows.ERROR_LOCK_VIOLATION),
		errors.Is(err, windows.ERROR_DELETE_PENDING):
		return FailLocked
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return FailAccessDenied
	default:
		return FailIO
	}
}
