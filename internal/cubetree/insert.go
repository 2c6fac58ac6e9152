package cubetree

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// maxGrowthSteps caps root wrapping for a single insert. Each wrap
// multiplies the side length by Branching, and doubling from the smallest
// positive float64 to past the largest takes about 2100 steps; reaching
// the cap means the target is uncoverable (NaN) or the growth geometry is
// defective.
const maxGrowthSteps = 2200

// insert files e under this subtree, growing the root when the entity's
// position falls outside the current bounds. It returns the node the call
// resolved against after any growth, always an ancestor-or-self of the
// leaf now holding e.
func (n *Node) insert(e Entity) *Node {
	pos := e.Position()
	n.mu.Lock()
	if !n.bounds.Contains(pos) {
		p := n.parent.Load()
		if p == nil {
			p = n.grow(pos)
		}
		n.mu.Unlock()
		return p.insert(e)
	}

	switch {
	case n.isInternal():
		// Descend unlocked when an existing child owns the position, so a
		// routed insert holds one node's lock at a time.
		if c := n.containedChild(pos); c != nil {
			n.mu.Unlock()
			c.insert(e)
			return n
		}
		n.routeToChild(e, pos)
	case len(n.entries) < n.cfg.LeafCapacity:
		n.entries = append(n.entries, e)
	case n.allEntriesAt(pos):
		// Entities at one identical point can never be separated by
		// subdivision, so the leaf absorbs the overflow instead of
		// splitting without end. Each stays removable by identity.
		n.entries = append(n.entries, e)
	default:
		// Leaf at capacity: redistribute every held entry into children,
		// converting this node to internal, then route the newcomer.
		n.split()
		n.routeToChild(e, pos)
	}
	n.mu.Unlock()
	return n
}

// grow wraps this node in successively larger ancestors until target is
// covered, returning the topmost new ancestor unlocked. Caller holds n.mu
// and has established that n has no parent.
//
// Every new ancestor is created with its own lock already held, before the
// child's parent link publishes it, and stays held until the loop has
// either wrapped it in turn or reached containment. A concurrent inserter
// that resolves an intermediate ancestor as its root therefore blocks on
// that ancestor's lock and, once admitted, sees a non-nil parent and
// delegates upward instead of starting a competing wrap chain: each node's
// parent link is written exactly once.
func (n *Node) grow(target r3.Vec) *Node {
	cur := n
	for steps := 0; !cur.bounds.Contains(target); steps++ {
		if steps >= maxGrowthSteps {
			Opsf("root growth stuck: target %v unreached from center %v side %g after %d wraps",
				target, cur.bounds.Center, cur.bounds.Side, steps)
			panic(fmt.Sprintf("cubetree: root growth did not reach %v after %d wraps", target, maxGrowthSteps))
		}
		p := cur.wrap(target)
		if cur != n {
			cur.mu.Unlock()
		}
		cur = p
	}
	if cur != n {
		cur.mu.Unlock()
	}
	Tracef("root grew to side %g centered %v covering %v", cur.bounds.Side, cur.bounds.Center, target)
	return cur
}

// wrap synthesizes and links a parent whose cube fully contains this node.
// The wrap extends toward target: on each axis the existing node takes slot
// 0 when the target lies above its center and N-1 when below, so every step
// adds coverage on the side of space that is actually missing.
func (n *Node) wrap(target r3.Vec) *Node {
	N := n.cfg.Branching
	childSide := n.bounds.Side
	side := childSide * float64(N)

	var idx [3]int
	for a, c := range [3]float64{n.bounds.Center.X, n.bounds.Center.Y, n.bounds.Center.Z} {
		if coord(target, a) >= c {
			idx[a] = 0
		} else {
			idx[a] = N - 1
		}
	}

	// Position the parent so its child cube (idx) coincides with n's cube:
	// parent corner = n.center - (idx+0.5)·childSide per axis.
	p := newNode(n.cfg, Cube{
		Center: r3.Vec{
			X: n.bounds.Center.X - (float64(idx[0])+0.5)*childSide + side/2,
			Y: n.bounds.Center.Y - (float64(idx[1])+0.5)*childSide + side/2,
			Z: n.bounds.Center.Z - (float64(idx[2])+0.5)*childSide + side/2,
		},
		Side: side,
	})
	p.children[p.slot(idx[0], idx[1], idx[2])].Store(n)
	p.occupied = 1
	// Lock the new parent before the store below makes it reachable; the
	// growth loop releases it once the chain is done with it. Publish the
	// parent link last, so whoever follows it finds a fully formed node.
	p.mu.Lock()
	n.parent.Store(p)
	return p
}

func coord(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// routeToChild files e into the child slot owning pos, creating the child
// lazily as a fresh leaf seeded with e. Caller holds n.mu.
//
// A position that drifted outside this node's cube since filing (stale
// until the next relocation pass) parks in the nearest child rather than
// delegating upward, which would retake the lock already held here. A
// contained position mapped to a child cube that rejects it is a geometry
// defect, whether the slot is empty or not, and fails loudly rather than
// dropping data.
func (n *Node) routeToChild(e Entity, pos r3.Vec) {
	i, j, k := n.childIndex(pos)
	s := n.slot(i, j, k)
	c := n.children[s].Load()
	if c == nil {
		cube := n.childCube(i, j, k)
		if !cube.Contains(pos) && n.bounds.Contains(pos) {
			Opsf("child cube %v side %g at (%d,%d,%d) rejects contained position %v",
				cube.Center, cube.Side, i, j, k, pos)
			panic("cubetree: position contained by a node but by none of its child cubes")
		}
		c = newNode(n.cfg, cube)
		c.entries = append(c.entries, e)
		c.parent.Store(n)
		n.children[s].Store(c)
		n.occupied++
		return
	}
	if c.bounds.Contains(pos) {
		c.insert(e)
		return
	}
	if n.bounds.Contains(pos) {
		Opsf("child cube %v side %g at (%d,%d,%d) rejects contained position %v",
			c.bounds.Center, c.bounds.Side, i, j, k, pos)
		panic("cubetree: position contained by a node but by none of its child cubes")
	}
	c.park(e, pos)
}

// park files e under this subtree although pos lies outside its bounds,
// descending by nearest slot only and never delegating upward. A parked
// leaf may transiently exceed its capacity; the next relocation pass
// re-homes the entity to where its position actually belongs.
func (n *Node) park(e Entity, pos r3.Vec) {
	n.mu.Lock()
	if n.isInternal() {
		n.routeToChild(e, pos)
		n.mu.Unlock()
		return
	}
	n.entries = append(n.entries, e)
	n.mu.Unlock()
}

// allEntriesAt reports whether every held entry currently sits exactly at
// pos. Caller holds mu.
func (n *Node) allEntriesAt(pos r3.Vec) bool {
	for _, held := range n.entries {
		if held.Position() != pos {
			return false
		}
	}
	return true
}

// split converts a full leaf into an internal node by redistributing every
// held entry into child slots. Caller holds n.mu; a split that cascades
// into already-full children keeps the ancestor locks held until the
// redistribution settles.
func (n *Node) split() {
	held := n.entries
	n.entries = nil
	for _, e := range held {
		n.routeToChild(e, e.Position())
	}
	Tracef("split node centered %v side %g into %d children", n.bounds.Center, n.bounds.Side, n.occupied)
}
