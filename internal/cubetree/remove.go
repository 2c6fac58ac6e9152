package cubetree

// Remove unindexes e, matching by identity. It returns false when e is not
// held anywhere under the current root; not-found is an ordinary result,
// not an error. The search is guided by e's current position, so an entity
// that moved since the last relocation pass may not be found.
func (t *Tree) Remove(e Entity) bool {
	return t.currentRoot().remove(e)
}

func (n *Node) remove(e Entity) bool {
	if !n.bounds.Contains(e.Position()) {
		return false
	}
	n.mu.Lock()
	for i, held := range n.entries {
		if held == e {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			n.mu.Unlock()
			return true
		}
	}
	n.mu.Unlock()
	for i := range n.children {
		if c := n.children[i].Load(); c != nil && c.remove(e) {
			return true
		}
	}
	return false
}

// FindParentNode locates the node directly holding e and returns that
// node's parent, or nil when e is not indexed or its holder is the root.
//
// This is a full locked depth-first search with no containment pruning (the
// entity's position may be stale), so the cost is linear in the number of
// indexed entities; no entity-to-node index is maintained and repeated
// lookups do not amortize.
func (t *Tree) FindParentNode(e Entity) *Node {
	h := t.currentRoot().findHolder(e)
	if h == nil {
		return nil
	}
	return h.parent.Load()
}

func (n *Node) findHolder(e Entity) *Node {
	n.mu.Lock()
	for _, held := range n.entries {
		if held == e {
			n.mu.Unlock()
			return n
		}
	}
	n.mu.Unlock()
	for i := range n.children {
		if c := n.children[i].Load(); c != nil {
			if h := c.findHolder(e); h != nil {
				return h
			}
		}
	}
	return nil
}
