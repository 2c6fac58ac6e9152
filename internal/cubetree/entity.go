package cubetree

import "gonum.org/v1/gonum/spatial/r3"

// Entity is the contract between the tree and the application objects it
// indexes. The tree routes an entity by its current Position and records
// the position it last filed the entity under as the indexed position; a
// relocation pass compares the two and re-homes entities that have moved.
//
// Implementations must be comparable with == (in practice, pointer types):
// removal and lookup match by identity, not by value. Ownership is shared —
// the same entity may be referenced by the tree and by callers at once, and
// the tree mutates nothing beyond the indexed position.
type Entity interface {
	Position() r3.Vec
	IndexedPosition() r3.Vec
	SetIndexedPosition(r3.Vec)
}
