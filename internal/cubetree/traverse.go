package cubetree

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// ForEach applies fn to every indexed entity on the caller's goroutine,
// depth first. A node's entries are visited in order; fn returning false
// stops that branch — no further entities or descendants under the current
// node are visited — while branches outside it proceed as normal. Early
// exit is per branch, never tree-wide.
func (t *Tree) ForEach(fn func(Entity) bool) {
	t.currentRoot().walk(fn, nil, nil)
}

// ForEachAsync is ForEach with bounded internal parallelism: a child
// subtree is handed to its own goroutine while fewer than budget spawned
// walks are outstanding, and absorbed inline in the current walk otherwise.
// Admission is an explicit counting permit acquired before spawn and
// released on completion; nothing is queued or rejected. The call blocks
// until every spawned walk at every level has finished.
//
// A budget below 1 degrades to the synchronous walk. fn must be safe for
// concurrent calls.
func (t *Tree) ForEachAsync(budget int64, fn func(Entity) bool) {
	if budget < 1 {
		t.ForEach(fn)
		return
	}
	sem := semaphore.NewWeighted(budget)
	var wg sync.WaitGroup
	t.currentRoot().walk(fn, sem, &wg)
	wg.Wait()
}

// walk visits this node's entries, then its children. Entries are copied
// out under the node's lock and fn runs unlocked, so the predicate may use
// the tree itself.
func (n *Node) walk(fn func(Entity) bool, sem *semaphore.Weighted, wg *sync.WaitGroup) {
	n.mu.Lock()
	entries := make([]Entity, len(n.entries))
	copy(entries, n.entries)
	n.mu.Unlock()

	for _, e := range entries {
		if !fn(e) {
			return
		}
	}
	for i := range n.children {
		c := n.children[i].Load()
		if c == nil {
			continue
		}
		if sem != nil && sem.TryAcquire(1) {
			wg.Add(1)
			go func(c *Node) {
				defer wg.Done()
				defer sem.Release(1)
				c.walk(fn, sem, wg)
			}(c)
		} else {
			c.walk(fn, sem, wg)
		}
	}
}
