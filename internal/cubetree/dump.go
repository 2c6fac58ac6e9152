package cubetree

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable rendering of the tree to w: per node its
// bounds, held entry positions and occupied child slots, indented by depth.
// Debugging aid only; the format is not stable.
func (t *Tree) Dump(w io.Writer) {
	t.currentRoot().dump(w, 0)
}

func (n *Node) dump(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)

	n.mu.Lock()
	fmt.Fprintf(w, "%snode center=(%g, %g, %g) side=%g entries=%d\n",
		indent, n.bounds.Center.X, n.bounds.Center.Y, n.bounds.Center.Z, n.bounds.Side, len(n.entries))
	for _, e := range n.entries {
		p := e.Position()
		fmt.Fprintf(w, "%s  entry (%g, %g, %g)\n", indent, p.X, p.Y, p.Z)
	}
	n.mu.Unlock()

	N := n.cfg.Branching
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			for k := 0; k < N; k++ {
				c := n.children[n.slot(i, j, k)].Load()
				if c == nil {
					continue
				}
				fmt.Fprintf(w, "%s  child[%d][%d][%d]:\n", indent, i, j, k)
				c.dump(w, depth+2)
			}
		}
	}
}
