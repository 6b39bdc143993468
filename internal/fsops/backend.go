// Package fsops is the deletion backend: the platform-specific primitive
// that removes one file or one empty directory, plus the uniform retry and
// attribute-clearing policy layered on top of it.
package fsops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"rmfast/internal/graph"
)

// FailKind classifies a delete failure after retries are exhausted.
type FailKind uint8

const (
	FailAccessDenied FailKind = iota
	FailLocked
	FailIO
)

func (k FailKind) String() string {
	switch k {
	case FailAccessDenied:
		return "access denied"
	case FailLocked:
		return "locked"
	default:
		return "io error"
	}
}

// DeleteError is the terminal error for one entry.
type DeleteError struct {
	Kind FailKind
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// Platform is the capability set implemented once per target OS and selected
// at build time. Implementations are stateless.
type Platform interface {
	// Remove unlinks a file or symlink, or removes an empty directory.
	Remove(path string, kind graph.Kind) error

	// ClearProtective strips exactly the given protective attributes so a
	// failed removal can be retried.
	ClearProtective(path string, attr graph.Attr) error

	// ExtendedPath rewrites path into the platform's long-path-safe form.
	ExtendedPath(path string) string

	// Attributes derives the protective attribute mask from scan-time info.
	Attributes(fi os.FileInfo) graph.Attr

	// Classify maps an OS error to the failure taxonomy.
	Classify(err error) FailKind
}

// Backend removes one entry per call. Implementations must be safe for
// concurrent use by all scheduler workers.
type Backend interface {
	Delete(path string, kind graph.Kind, attr graph.Attr) error
}

// RetryPolicy bounds how hard the backend tries before giving up on an
// entry. Attempts counts total removal attempts, not retries.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry matches the common case: transient sharing violations clear
// within a few tens of milliseconds or not at all.
var DefaultRetry = RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}

type backend struct {
	plat   Platform
	policy RetryPolicy
}

// NewBackend wraps a platform with the uniform delete policy.
func NewBackend(plat Platform, policy RetryPolicy) Backend {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &backend{plat: plat, policy: policy}
}

// Delete attempts direct removal first and only falls back to attribute
// clearing or retries when that fails, so the common case stays at one
// syscall per entry. A path that no longer exists is a success: delete is
// idempotent and losing a race to another process still means the entry is
// gone.
func (b *backend) Delete(path string, kind graph.Kind, attr graph.Attr) error {
	p := b.plat.ExtendedPath(path)

	err := b.plat.Remove(p, kind)
	if done(err) {
		return nil
	}

	// Lazy attribute clearing: if the failure looks like a protective
	// attribute we captured at scan time, strip just that attribute and try
	// once more.
	if prot := protective(err, attr); prot != 0 {
		if clearErr := b.plat.ClearProtective(p, prot); clearErr == nil {
			err = b.plat.Remove(p, kind)
			if done(err) {
				return nil
			}
		}
	}

	for attempt := 1; attempt < b.policy.Attempts; attempt++ {
		time.Sleep(b.policy.Backoff)
		err = b.plat.Remove(p, kind)
		if done(err) {
			return nil
		}
	}

	return &DeleteError{Kind: b.plat.Classify(err), Path: path, Err: err}
}

// done reports whether err means the entry is gone.
func done(err error) bool {
	return err == nil || errors.Is(err, fs.ErrNotExist)
}

// protective returns the attribute bits that plausibly caused err, or zero.
func protective(err error, attr graph.Attr) graph.Attr {
	if !errors.Is(err, fs.ErrPermission) {
		return 0
	}
	return attr & (graph.AttrReadOnly | graph.AttrSystem | graph.AttrHidden)
}
