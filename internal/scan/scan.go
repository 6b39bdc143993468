// Package scan walks each deletion root and builds the dependency graph the
// scheduler executes.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"rmfast/internal/fsops"
	"rmfast/internal/graph"
)

// Scanner classifies entries and captures attributes through the platform
// capability set, so the backend later knows what it may have to clear.
type Scanner struct {
	plat fsops.Platform
	log  zerolog.Logger
}

func New(plat fsops.Platform, log zerolog.Logger) *Scanner {
	return &Scanner{plat: plat, log: log}
}

// Scan performs one pass over every root and returns the combined forest.
// Listing failures never abort the scan: the unreadable directory is marked
// Failed and its siblings keep going. Roots that no longer exist contribute
// nothing, consistent with idempotent-delete semantics.
//
// The only error Scan returns is ctx.Err(): the caller gets the partial
// forest and decides what to do with it.
func (s *Scanner) Scan(ctx context.Context, roots []string) (*graph.Graph, error) {
	g := graph.New()

	// Directories queued for enumeration. An explicit worklist instead of
	// recursion keeps stack depth flat on arbitrarily deep trees.
	var pending []graph.NodeID

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		abs = filepath.Clean(abs)

		fi, err := os.Lstat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				s.log.Debug().Str("path", abs).Msg("root already gone")
				continue
			}
			id := g.Add(&graph.Node{Path: abs, Kind: graph.Unknown, Parent: graph.None})
			g.Node(id).Fail("stat: " + err.Error())
			g.AddRoot(id)
			continue
		}

		n := s.newNode(abs, fi, graph.None)
		id := g.Add(n)
		g.AddRoot(id)
		if n.Kind == graph.Dir {
			pending = append(pending, id)
		}
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return g, err
		}

		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		dir := g.Node(id)

		entries, err := os.ReadDir(dir.Path)
		if err != nil {
			// Vanished between discovery and listing means someone else
			// already deleted it for us.
			if os.IsNotExist(err) {
				dir.SetState(graph.Deleted)
				continue
			}
			s.log.Warn().Str("path", dir.Path).Err(err).Msg("cannot list directory")
			dir.Fail("list: " + err.Error())
			continue
		}

		// The directory becomes visible to the scheduler only with its full
		// child set counted, otherwise the in-degree would be wrong.
		for _, entry := range entries {
			path := filepath.Join(dir.Path, entry.Name())
			child := s.newDirEntryNode(path, entry, id)
			childID := g.Add(child)
			if child.Kind == graph.Dir {
				pending = append(pending, childID)
			}
		}
		dir.SetPending(len(entries))
	}

	return g, nil
}

func (s *Scanner) newNode(path string, fi os.FileInfo, parent graph.NodeID) *graph.Node {
	return &graph.Node{
		Path:   path,
		Kind:   classify(fi.Mode()),
		Attr:   s.plat.Attributes(fi),
		Size:   fi.Size(),
		Parent: parent,
	}
}

func (s *Scanner) newDirEntryNode(path string, entry os.DirEntry, parent graph.NodeID) *graph.Node {
	n := &graph.Node{
		Path:   path,
		Kind:   classify(entry.Type()),
		Parent: parent,
	}
	// Size and attributes are best effort; an entry we cannot stat is still
	// deletable.
	if fi, err := entry.Info(); err == nil {
		n.Attr = s.plat.Attributes(fi)
		if n.Kind == graph.File {
			n.Size = fi.Size()
		}
	}
	return n
}

// classify maps a file mode to an entry kind. Symlinks are classified as
// links and never traversed into: they are deleted as links, which rules
// out cycles and unbounded graphs.
func classify(mode fs.FileMode) graph.Kind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return graph.Symlink
	case mode.IsDir():
		return graph.Dir
	case mode.IsRegular():
		return graph.File
	default:
		// Sockets, fifos, devices: unlink works on them all.
		return graph.Unknown
	}
}
