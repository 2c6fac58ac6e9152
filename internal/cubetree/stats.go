package cubetree

// TreeStats summarizes the shape of the tree. Each node is measured at the
// instant its own lock is held, so under concurrent mutation the totals are
// not a consistent snapshot of the whole tree.
type TreeStats struct {
	Nodes    int `json:"nodes"`
	Leaves   int `json:"leaves"`
	Entities int `json:"entities"`
	MaxDepth int `json:"max_depth"`
}

// Stats walks the tree and returns its current shape.
func (t *Tree) Stats() TreeStats {
	var s TreeStats
	t.currentRoot().accumulateStats(&s, 1)
	return s
}

func (n *Node) accumulateStats(s *TreeStats, depth int) {
	s.Nodes++
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}

	n.mu.Lock()
	s.Entities += len(n.entries)
	leaf := n.occupied == 0
	n.mu.Unlock()

	if leaf {
		s.Leaves++
		return
	}
	for i := range n.children {
		if c := n.children[i].Load(); c != nil {
			c.accumulateStats(s, depth+1)
		}
	}
}
