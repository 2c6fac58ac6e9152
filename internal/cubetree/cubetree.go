// Package cubetree implements an N-ary cubic spatial partitioning tree that
// indexes point-like, moving entities in 3D space for proximity and range
// queries.
//
// The tree subdivides each node into Branching³ equal child cubes, splits a
// leaf when its capacity is exceeded, and grows upward — wrapping the root
// in ever larger ancestors — when a position falls outside current
// coverage. Growth is monotonic: the tree never shrinks, merges or
// rebalances, and root replacement only wraps live structure, so node
// references held across growth stay valid.
//
// Each node carries its own mutex guarding exactly its entries and child
// slots. A routed insert releases a node before descending into the child
// that owns the position, so it holds one lock at a time; the exceptions
// are a leaf split, which keeps the splitting node (and, when the split
// cascades, its descendants) locked while entries are filed downward, and
// root growth, which holds each new ancestor from creation until the wrap
// chain covers the target. Queries and traversals never hold more than one
// node's lock and are therefore not linearizable across the whole tree,
// only per node.
package cubetree

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Tree owns the root of a cube-tree and re-resolves it across growth so
// callers do not have to track root replacement themselves.
//
// All methods are safe for concurrent use, except that relocation passes
// (Update) are serialized internally and must not run concurrently with
// callers mutating entity positions.
//
// The zero value is not usable; construct with New.
type Tree struct {
	cfg  Config
	root atomic.Pointer[Node]

	// updateMu serializes relocation passes and their reinsertions.
	updateMu sync.Mutex
}

// New builds an empty tree covering bounds. The bounds only seed coverage:
// inserting a position outside them grows the root.
func New(cfg Config, bounds Cube) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if bounds.Side <= 0 {
		return nil, fmt.Errorf("bounds side must be positive, got %g", bounds.Side)
	}
	t := &Tree{cfg: cfg}
	t.root.Store(newNode(&t.cfg, bounds))
	return t, nil
}

// Insert indexes e under its current position, growing the root as needed.
// The position is recorded as the entity's indexed position so the next
// relocation pass leaves it alone until it actually moves.
func (t *Tree) Insert(e Entity) {
	e.SetIndexedPosition(e.Position())
	n := t.currentRoot().insert(e)
	t.root.Store(resolveRoot(n))
}

// Root returns the current root node. Growth replaces the root, so callers
// holding a Node across inserts should re-resolve through this method.
func (t *Tree) Root() *Node { return t.currentRoot() }

// Len returns the number of entities currently indexed.
func (t *Tree) Len() int { return t.Stats().Entities }

// currentRoot loads the last published root, climbs parent links to the
// authoritative one, and publishes what it finds.
func (t *Tree) currentRoot() *Node {
	n := resolveRoot(t.root.Load())
	t.root.Store(n)
	return n
}

// resolveRoot follows parent references upward until reaching a node with
// none.
func resolveRoot(n *Node) *Node {
	for {
		p := n.parent.Load()
		if p == nil {
			return n
		}
		n = p
	}
}
