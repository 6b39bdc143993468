package fsops

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"testing"
	"time"

	"rmfast/internal/graph"
)

// scriptPlatform scripts per-path removal outcomes so the retry policy can
// be exercised without a filesystem.
type scriptPlatform struct {
	mu      sync.Mutex
	errs    map[string][]error // popped per Remove call; empty means success
	removes map[string]int
	cleared map[string]graph.Attr
}

func newScriptPlatform() *scriptPlatform {
	return &scriptPlatform{
		errs:    make(map[string][]error),
		removes: make(map[string]int),
		cleared: make(map[string]graph.Attr),
	}
}

func (p *scriptPlatform) script(path string, errs ...error) {
	p.errs[path] = errs
}

func (p *scriptPlatform) Remove(path string, kind graph.Kind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removes[path]++
	queue := p.errs[path]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	p.errs[path] = queue[1:]
	return err
}

func (p *scriptPlatform) ClearProtective(path string, attr graph.Attr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared[path] |= attr
	return nil
}

func (p *scriptPlatform) ExtendedPath(path string) string { return path }

func (p *scriptPlatform) Attributes(fi os.FileInfo) graph.Attr { return 0 }

func (p *scriptPlatform) Classify(err error) FailKind {
	if errors.Is(err, fs.ErrPermission) {
		return FailAccessDenied
	}
	return FailIO
}

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Backoff: time.Millisecond}
}

func TestDeleteSucceedsFirstAttempt(t *testing.T) {
	plat := newScriptPlatform()
	be := NewBackend(plat, fastRetry(3))

	if err := be.Delete("/x/a", graph.File, 0); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if plat.removes["/x/a"] != 1 {
		t.Errorf("expected exactly 1 remove call, got %d", plat.removes["/x/a"])
	}
	if len(plat.cleared) != 0 {
		t.Errorf("attributes cleared without a failure: %v", plat.cleared)
	}
}

func TestDeleteNotFoundIsSuccess(t *testing.T) {
	plat := newScriptPlatform()
	plat.script("/x/gone", fs.ErrNotExist)
	be := NewBackend(plat, fastRetry(3))

	if err := be.Delete("/x/gone", graph.File, 0); err != nil {
		t.Fatalf("delete of missing entry should succeed, got %v", err)
	}
	if plat.removes["/x/gone"] != 1 {
		t.Errorf("expected no retries for missing entry, got %d calls", plat.removes["/x/gone"])
	}
}

func TestDeleteLazyAttributeClearing(t *testing.T) {
	plat := newScriptPlatform()
	plat.script("/x/ro", fs.ErrPermission) // first attempt denied, retry clean
	be := NewBackend(plat, fastRetry(1))

	if err := be.Delete("/x/ro", graph.File, graph.AttrReadOnly); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if plat.cleared["/x/ro"]&graph.AttrReadOnly == 0 {
		t.Error("read-only attribute was not cleared")
	}
	if plat.removes["/x/ro"] != 2 {
		t.Errorf("expected clear-and-retry to make 2 remove calls, got %d", plat.removes["/x/ro"])
	}
}

func TestDeleteNoClearWithoutProtectiveAttr(t *testing.T) {
	plat := newScriptPlatform()
	plat.script("/x/denied", fs.ErrPermission, fs.ErrPermission, fs.ErrPermission)
	be := NewBackend(plat, fastRetry(3))

	err := be.Delete("/x/denied", graph.File, 0)
	if err == nil {
		t.Fatal("expected failure")
	}
	if len(plat.cleared) != 0 {
		t.Errorf("cleared attributes despite none captured: %v", plat.cleared)
	}

	var de *DeleteError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeleteError, got %T", err)
	}
	if de.Kind != FailAccessDenied {
		t.Errorf("expected FailAccessDenied, got %v", de.Kind)
	}
}

func TestDeleteRetriesUpToBound(t *testing.T) {
	plat := newScriptPlatform()
	ioErr := errors.New("device error")
	plat.script("/x/flaky", ioErr, ioErr, ioErr, ioErr, ioErr)
	be := NewBackend(plat, fastRetry(3))

	err := be.Delete("/x/flaky", graph.File, 0)
	if err == nil {
		t.Fatal("expected failure after bounded retries")
	}
	if plat.removes["/x/flaky"] != 3 {
		t.Errorf("expected 3 attempts, got %d", plat.removes["/x/flaky"])
	}
}

func TestDeleteTransientErrorRecovers(t *testing.T) {
	plat := newScriptPlatform()
	plat.script("/x/busy", errors.New("resource busy")) // clears on retry
	be := NewBackend(plat, fastRetry(3))

	if err := be.Delete("/x/busy", graph.File, 0); err != nil {
		t.Fatalf("expected recovery on retry, got %v", err)
	}
	if plat.removes["/x/busy"] != 2 {
		t.Errorf("expected 2 attempts, got %d", plat.removes["/x/busy"])
	}
}
