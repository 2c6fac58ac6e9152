package cubetree

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"
)

// Node is one cell of the cube-tree. A node is either a leaf (entries may
// be non-empty, every child slot empty) or internal (no entries, at least
// one slot occupied) — never both.
//
// The mutex guards entries and slot mutation for this node only; there is
// no hierarchical locking. Slots and the parent link are atomic pointers so
// that readers descending or climbing without this node's lock always
// observe fully initialized nodes: a node is published into a slot (or as a
// parent) only after its own fields, including its parent link, are set.
type Node struct {
	cfg    *Config
	bounds Cube

	// parent is a non-owning back-reference, written once when the node is
	// linked into the tree. nil means the node is (or once was) the root;
	// growth wraps the old root rather than freeing it, so a stale root
	// held by a caller stays valid and properly linked.
	parent atomic.Pointer[Node]

	mu       sync.Mutex
	entries  []Entity
	children []atomic.Pointer[Node] // len cfg.fanout(), row-major (i*N+j)*N+k
	occupied int                    // populated slots, guarded by mu
}

func newNode(cfg *Config, bounds Cube) *Node {
	return &Node{
		cfg:      cfg,
		bounds:   bounds,
		children: make([]atomic.Pointer[Node], cfg.fanout()),
	}
}

// Bounds returns the cube this node is responsible for.
func (n *Node) Bounds() Cube { return n.bounds }

// Parent returns the node's parent, or nil for the current root.
func (n *Node) Parent() *Node { return n.parent.Load() }

// EntryCount returns the number of entities the node holds directly.
// Non-zero only for leaves.
func (n *Node) EntryCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.occupied == 0
}

// isInternal reports whether any child slot is occupied. Caller holds mu.
func (n *Node) isInternal() bool { return n.occupied > 0 }

// slot returns the flat child index for grid coordinates (i, j, k).
func (n *Node) slot(i, j, k int) int {
	N := n.cfg.Branching
	return (i*N+j)*N + k
}

// containedChild returns the existing child whose cube contains pos, or
// nil when the owning slot is empty or its cube rejects the position.
// Caller holds mu.
func (n *Node) containedChild(pos r3.Vec) *Node {
	i, j, k := n.childIndex(pos)
	c := n.children[n.slot(i, j, k)].Load()
	if c != nil && c.bounds.Contains(pos) {
		return c
	}
	return nil
}

// childIndex maps a position to the grid coordinates of the child cube
// owning it. Indices are clamped into range, so a position outside the
// node's bounds maps to the nearest child.
func (n *Node) childIndex(p r3.Vec) (i, j, k int) {
	N := n.cfg.Branching
	side := n.bounds.Side / float64(N)
	h := n.bounds.Side / 2
	i = clampIndex(int((p.X-(n.bounds.Center.X-h))/side), N)
	j = clampIndex(int((p.Y-(n.bounds.Center.Y-h))/side), N)
	k = clampIndex(int((p.Z-(n.bounds.Center.Z-h))/side), N)
	return i, j, k
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// childCube returns the cube of child (i, j, k): side L/N, centered at the
// node's corner plus (i+0.5, j+0.5, k+0.5)·(L/N) along each axis. The N³
// child cubes partition the node's volume with no gaps and no overlap.
func (n *Node) childCube(i, j, k int) Cube {
	side := n.bounds.Side / float64(n.cfg.Branching)
	h := n.bounds.Side / 2
	return Cube{
		Center: r3.Vec{
			X: n.bounds.Center.X - h + (float64(i)+0.5)*side,
			Y: n.bounds.Center.Y - h + (float64(j)+0.5)*side,
			Z: n.bounds.Center.Z - h + (float64(k)+0.5)*side,
		},
		Side: side,
	}
}
