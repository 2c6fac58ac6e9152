package cubetree

import "gonum.org/v1/gonum/spatial/r3"

// QueryRange returns every indexed entity whose current position is within
// radius of p. Order is unspecified; an entity is held by exactly one node
// at a time, so duplicates cannot occur.
func (t *Tree) QueryRange(p r3.Vec, radius float64) []Entity {
	return t.currentRoot().queryRange(p, radius, nil)
}

// QueryAroundEntity returns the entities within radius of e's current
// position. e itself is included when it is indexed in range.
func (t *Tree) QueryAroundEntity(e Entity, radius float64) []Entity {
	return t.QueryRange(e.Position(), radius)
}

// queryRange is a DFS with geometric pruning: a node whose cube misses the
// query sphere's bounding box contributes nothing and is not descended.
// The node is locked only long enough to copy out matching entries;
// children are walked unlocked.
func (n *Node) queryRange(p r3.Vec, radius float64, out []Entity) []Entity {
	if !n.bounds.IntersectsSphere(p, radius) {
		return out
	}
	n.mu.Lock()
	for _, e := range n.entries {
		if r3.Norm(r3.Sub(e.Position(), p)) <= radius {
			out = append(out, e)
		}
	}
	n.mu.Unlock()
	for i := range n.children {
		if c := n.children[i].Load(); c != nil {
			out = c.queryRange(p, radius, out)
		}
	}
	return out
}
