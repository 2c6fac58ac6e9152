package cubetree

import "sync"

// Update runs one relocation pass: every entity whose current position no
// longer matches its indexed position is removed from the node holding it
// and reinserted where it now belongs. It returns the number of entities
// relocated.
//
// Phase 1 walks the tree with one goroutine per child subtree, collecting
// movers into a shared batch; the WaitGroup join is the quiescence barrier
// for the whole walk and its parallelism is bounded only by tree fan-out.
// Phase 2 reinserts the batch inside a single exclusive section so that
// root-growth decisions stay consistent, records each mover's new indexed
// position, and re-resolves the authoritative root, since any reinsertion
// may have wrapped it.
//
// Update passes are serialized against each other; callers must not mutate
// entity positions while a pass runs.
func (t *Tree) Update() int {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	root := t.currentRoot()

	var (
		mu    sync.Mutex
		moved []Entity
		wg    sync.WaitGroup
	)
	var collect func(n *Node)
	collect = func(n *Node) {
		n.mu.Lock()
		var batch []Entity
		kept := n.entries[:0]
		for _, e := range n.entries {
			if e.Position() != e.IndexedPosition() {
				batch = append(batch, e)
			} else {
				kept = append(kept, e)
			}
		}
		n.entries = kept
		n.mu.Unlock()
		if len(batch) > 0 {
			mu.Lock()
			moved = append(moved, batch...)
			mu.Unlock()
		}
		for i := range n.children {
			if c := n.children[i].Load(); c != nil {
				wg.Add(1)
				go func(c *Node) {
					defer wg.Done()
					collect(c)
				}(c)
			}
		}
	}
	collect(root)
	wg.Wait()

	for _, e := range moved {
		root = root.insert(e)
		e.SetIndexedPosition(e.Position())
	}
	t.root.Store(resolveRoot(root))

	if len(moved) > 0 {
		Tracef("relocated %d entities", len(moved))
	}
	return len(moved)
}
