package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildForest creates root/{a.txt, sub/{b.txt, c.txt}} by hand.
func buildForest(g *Graph) (root, a, sub, b, c NodeID) {
	root = g.Add(&Node{Path: "/x/root", Kind: Dir, Parent: None})
	g.AddRoot(root)
	a = g.Add(&Node{Path: "/x/root/a.txt", Kind: File, Parent: root})
	sub = g.Add(&Node{Path: "/x/root/sub", Kind: Dir, Parent: root})
	b = g.Add(&Node{Path: "/x/root/sub/b.txt", Kind: File, Parent: sub})
	c = g.Add(&Node{Path: "/x/root/sub/c.txt", Kind: File, Parent: sub})
	g.Node(root).SetPending(2)
	g.Node(sub).SetPending(2)
	return
}

func TestLeavesAreNodesWithoutPendingChildren(t *testing.T) {
	g := New()
	root, a, sub, b, c := buildForest(g)

	leaves := g.Leaves()
	assert.ElementsMatch(t, []NodeID{a, b, c}, leaves)
	assert.NotContains(t, leaves, root)
	assert.NotContains(t, leaves, sub)
}

func TestChildDoneReportsReadiness(t *testing.T) {
	g := New()
	_, _, sub, _, _ := buildForest(g)

	n := g.Node(sub)
	require.Equal(t, 2, n.Pending())
	assert.False(t, n.ChildDone(), "first child should not make sub ready")
	assert.True(t, n.ChildDone(), "second child should make sub ready")
}

func TestStateTransitions(t *testing.T) {
	n := &Node{Path: "/x/f", Kind: File, Parent: None}

	require.Equal(t, Discovered, n.State())
	assert.False(t, n.State().Terminal())

	n.SetState(Deleting)
	assert.Equal(t, Deleting, n.State())

	n.SetState(Deleted)
	assert.True(t, n.State().Terminal())
}

func TestFailRecordsReason(t *testing.T) {
	n := &Node{Path: "/x/f", Kind: File, Parent: None}
	n.Fail("permission denied")

	assert.Equal(t, Failed, n.State())
	assert.True(t, n.State().Terminal())
	assert.Equal(t, "permission denied", n.Reason())
}

func TestChildFailedFlag(t *testing.T) {
	n := &Node{Path: "/x/d", Kind: Dir, Parent: None}

	assert.False(t, n.ChildFailed())
	n.MarkChildFailed()
	assert.True(t, n.ChildFailed())
}

func TestEmptyDirectoryIsLeaf(t *testing.T) {
	g := New()
	id := g.Add(&Node{Path: "/x/empty", Kind: Dir, Parent: None})
	g.AddRoot(id)
	g.Node(id).SetPending(0)

	assert.Equal(t, []NodeID{id}, g.Leaves())
}

func TestKindAndStateStrings(t *testing.T) {
	assert.Equal(t, "dir", Dir.String())
	assert.Equal(t, "symlink", Symlink.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "deleted", Deleted.String())
}
