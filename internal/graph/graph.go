// Package graph holds the dependency graph the scheduler executes: a forest
// of filesystem entries where every directory node depends on the entries
// physically inside it. Nodes live in an append-only arena and are addressed
// by integer id, so parent/child relationships are plain indexes instead of
// pointer cycles.
package graph

import (
	"sync/atomic"
)

// Kind classifies a filesystem entry at scan time.
type Kind uint8

const (
	File Kind = iota
	Dir
	Symlink
	Unknown
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Dir:
		return "dir"
	case Symlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// State is the lifecycle of a node. Transitions are driven only by the
// scanner (Discovered, Failed on listing errors) and the scheduler; Deleted
// and Failed are terminal and never revisited.
type State int32

const (
	Discovered State = iota
	Ready
	Deleting
	Deleted
	Failed
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case Ready:
		return "ready"
	case Deleting:
		return "deleting"
	case Deleted:
		return "deleted"
	case Failed:
		return "failed"
	default:
		return "invalid"
	}
}

// Terminal reports whether s is an end state.
func (s State) Terminal() bool {
	return s == Deleted || s == Failed
}

// Attr is the platform attribute bitmask captured at scan time. Only the
// deletion backend mutates attributes, and only during a clear-and-retry.
type Attr uint32

const (
	AttrReadOnly Attr = 1 << iota
	AttrHidden
	AttrSystem
)

// NodeID indexes a node within its Graph's arena.
type NodeID int32

// None marks the absence of a parent (root entries).
const None NodeID = -1

// Node is one filesystem entry under a deletion root.
type Node struct {
	Path   string // absolute, cleaned
	Kind   Kind
	Attr   Attr
	Size   int64
	Parent NodeID

	// pending counts children not yet in a terminal state. A directory is
	// dispatchable only once it reaches zero.
	pending     atomic.Int32
	state       atomic.Int32
	childFailed atomic.Bool

	// reason is written before the transition to Failed and read only after
	// observing the Failed state, so the atomic state store orders it.
	reason string
}

// State returns the node's current lifecycle state.
func (n *Node) State() State {
	return State(n.state.Load())
}

// SetState stores a new lifecycle state.
func (n *Node) SetState(s State) {
	n.state.Store(int32(s))
}

// Fail records reason and moves the node to the Failed terminal state.
func (n *Node) Fail(reason string) {
	n.reason = reason
	n.state.Store(int32(Failed))
}

// Reason returns the failure reason. Valid only after State() == Failed.
func (n *Node) Reason() string {
	return n.reason
}

// SetPending initializes the outstanding-children counter. Called once by
// the scanner after a directory's child set is fully enumerated.
func (n *Node) SetPending(count int) {
	n.pending.Store(int32(count))
}

// Pending returns the number of children not yet terminal.
func (n *Node) Pending() int {
	return int(n.pending.Load())
}

// ChildDone atomically decrements the outstanding-children counter and
// reports whether it reached zero, i.e. whether the node just became ready.
// This is the only coordination between workers draining independent
// subtrees.
func (n *Node) ChildDone() bool {
	return n.pending.Add(-1) == 0
}

// MarkChildFailed flags that at least one child ended up Failed. The node
// must then be failed instead of dispatched, since the directory cannot be
// empty.
func (n *Node) MarkChildFailed() {
	n.childFailed.Store(true)
}

// ChildFailed reports whether any child reached the Failed state.
func (n *Node) ChildFailed() bool {
	return n.childFailed.Load()
}

// Graph is a forest of nodes built by the scanner and consumed by the
// scheduler. The arena is append-only: the scanner is its only writer, and
// the scheduler only touches the atomic per-node fields.
type Graph struct {
	nodes []*Node
	roots []NodeID
}

func New() *Graph {
	return &Graph{}
}

// Add appends a node to the arena and returns its id.
func (g *Graph) Add(n *Node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// AddRoot records id as a root of the forest.
func (g *Graph) AddRoot(id NodeID) {
	g.roots = append(g.roots, id)
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// Len is the total number of entries in the forest.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Roots returns the ids of the root entries in submission order.
func (g *Graph) Roots() []NodeID {
	return g.roots
}

// Leaves returns every node with no outstanding children: files, symlinks,
// empty directories, and directories whose listing failed during the scan.
// These seed the scheduler's ready queue.
func (g *Graph) Leaves() []NodeID {
	var leaves []NodeID
	for i, n := range g.nodes {
		if n.Pending() == 0 {
			leaves = append(leaves, NodeID(i))
		}
	}
	return leaves
}
