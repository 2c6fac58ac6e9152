package cubetree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestLeafHoldsUpToCapacity(t *testing.T) {
	tr := newTestTree(t, 2, 4, 10)
	for i := 0; i < 4; i++ {
		tr.Insert(at(float64(i), 0, 0))
	}

	root := tr.Root()
	if !root.IsLeaf() {
		t.Fatal("root split before exceeding capacity")
	}
	if got := root.EntryCount(); got != 4 {
		t.Fatalf("root holds %d entries, want 4", got)
	}
	checkInvariants(t, tr)
}

func TestSplitOnCapacityExceeded(t *testing.T) {
	tr := newTestTree(t, 2, 4, 10)
	for i := 0; i < 5; i++ {
		tr.Insert(at(float64(i)-2, float64(i)-2, 0))
	}

	root := tr.Root()
	if root.IsLeaf() {
		t.Fatal("root did not split on the capacity+1 insert")
	}
	if got := root.EntryCount(); got != 0 {
		t.Fatalf("internal root still holds %d entries directly", got)
	}
	if got := tr.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}
	checkInvariants(t, tr)
}

func TestChildrenCreatedLazily(t *testing.T) {
	tr := newTestTree(t, 2, 1, 10)
	// Two entities in the same octant: the split creates only the slots
	// those positions route into, not all eight.
	tr.Insert(at(1, 1, 1))
	tr.Insert(at(4, 4, 4))

	s := tr.Stats()
	if s.Entities != 2 {
		t.Fatalf("Stats().Entities = %d, want 2", s.Entities)
	}
	if s.Nodes >= 1+8 {
		t.Fatalf("Stats().Nodes = %d; children are not being created lazily", s.Nodes)
	}
	checkInvariants(t, tr)
}

func TestGrowthCoversFarPoint(t *testing.T) {
	tr := newTestTree(t, 2, 2, 10)
	tr.Insert(at(0, 0, 0))

	oldRoot := tr.Root()
	far := at(1000, -2000, 500)
	tr.Insert(far)

	root := tr.Root()
	if root == oldRoot {
		t.Fatal("root was not replaced by growth")
	}
	if !root.Bounds().Contains(far.Position()) {
		t.Fatalf("grown root %v side %g does not contain %v",
			root.Bounds().Center, root.Bounds().Side, far.Position())
	}
	// The old root must remain alive, linked under the new structure.
	if oldRoot.Parent() == nil {
		t.Fatal("old root lost its parent link after growth")
	}
	if got := resolveRoot(oldRoot); got != root {
		t.Fatal("old root does not resolve to the new root")
	}
	if got := tr.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	checkInvariants(t, tr)
}

func TestGrowthIteratesUntilContainment(t *testing.T) {
	tr := newTestTree(t, 2, 2, 1)
	tr.Insert(at(0, 0, 0))

	// A single doubling step cannot reach this; growth must loop.
	far := at(1e6, 1e6, 1e6)
	tr.Insert(far)

	root := tr.Root()
	if !root.Bounds().Contains(far.Position()) {
		t.Fatalf("root side %g does not contain %v after growth", root.Bounds().Side, far.Position())
	}
	if q := tr.QueryRange(far.Position(), 1); len(q) != 1 || q[0] != Entity(far) {
		t.Fatalf("far entity not queryable after growth, got %d results", len(q))
	}
	checkInvariants(t, tr)
}

func TestGrowthBiasTowardPoint(t *testing.T) {
	for _, tt := range []struct {
		name string
		p    r3.Vec
	}{
		{"positive octant", r3.Vec{X: 50, Y: 50, Z: 50}},
		{"negative octant", r3.Vec{X: -50, Y: -50, Z: -50}},
		{"mixed", r3.Vec{X: 50, Y: -50, Z: 50}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTree(t, 2, 2, 10)
			tr.Insert(at(0, 0, 0))
			tr.Insert(&particle{pos: tt.p})

			root := tr.Root()
			// Growing toward the point, doubling from side 10 should cover
			// ±50 within three wraps (side 80); a fixed-corner bias can
			// need far more.
			if root.Bounds().Side > 80 {
				t.Errorf("root side %g after growth toward %v; growth is not biased toward the target",
					root.Bounds().Side, tt.p)
			}
			if !root.Bounds().Contains(tt.p) {
				t.Errorf("root does not contain %v", tt.p)
			}
			checkInvariants(t, tr)
		})
	}
}

func TestDeepRoutingKeepsContainment(t *testing.T) {
	tr := newTestTree(t, 2, 1, 16)
	pts := []r3.Vec{
		{X: 1, Y: 1, Z: 1},
		{X: 1.5, Y: 1, Z: 1},
		{X: 1.25, Y: 1, Z: 1},
		{X: 1.125, Y: 1, Z: 1},
		{X: -3, Y: 5, Z: -7},
	}
	for _, p := range pts {
		tr.Insert(&particle{pos: p})
	}
	if got := tr.Len(); got != len(pts) {
		t.Fatalf("Len() = %d, want %d", got, len(pts))
	}
	checkInvariants(t, tr)
}

// TestCoincidingPositionsDoNotSplitForever: identity is the entity key, so
// two entities at the identical point are valid input; since no amount of
// subdivision can separate them, the leaf must absorb the overflow instead
// of recursing.
func TestCoincidingPositionsDoNotSplitForever(t *testing.T) {
	tr := newTestTree(t, 2, 1, 10)
	a := at(1, 1, 1)
	b := at(1, 1, 1)
	tr.Insert(a)
	tr.Insert(b)

	if got := tr.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	if q := tr.QueryRange(r3.Vec{X: 1, Y: 1, Z: 1}, 0.1); len(q) != 2 {
		t.Fatalf("QueryRange at the shared position returned %d entities, want 2", len(q))
	}
	if !tr.Remove(a) {
		t.Fatal("first coinciding entity not removable by identity")
	}
	if !tr.Remove(b) {
		t.Fatal("second coinciding entity not removable by identity")
	}
	if got := tr.Len(); got != 0 {
		t.Fatalf("Len() = %d after removals, want 0", got)
	}
}

func TestCoincidingCrowdStaysSeparableFromNeighbors(t *testing.T) {
	tr := newTestTree(t, 2, 2, 10)
	crowd := make([]*particle, 6)
	for i := range crowd {
		crowd[i] = at(2, 2, 2)
		tr.Insert(crowd[i])
	}
	// A distinct point in the same octant still forces splits around the
	// crowd rather than burying it.
	lone := at(4, 4, 4)
	tr.Insert(lone)

	if got := tr.Len(); got != 7 {
		t.Fatalf("Len() = %d, want 7", got)
	}
	if q := tr.QueryRange(r3.Vec{X: 2, Y: 2, Z: 2}, 0.1); len(q) != 6 {
		t.Errorf("crowd query returned %d entities, want 6", len(q))
	}
	if q := tr.QueryRange(r3.Vec{X: 4, Y: 4, Z: 4}, 0.1); len(q) != 1 {
		t.Errorf("neighbor query returned %d entities, want 1", len(q))
	}
	checkInvariants(t, tr)
}

func TestNearCoincidentPositionsSeparate(t *testing.T) {
	tr := newTestTree(t, 2, 1, 10)
	a := at(1, 1, 1)
	b := at(1+1e-9, 1, 1)
	tr.Insert(a)
	tr.Insert(b)

	if got := tr.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	// Distinct positions must end up in distinct leaves, however deep.
	q := tr.QueryRange(r3.Vec{X: 1, Y: 1, Z: 1}, 1e-12)
	if len(q) != 1 || q[0] != Entity(a) {
		t.Fatalf("tight query around the first point returned %d entities", len(q))
	}
	checkInvariants(t, tr)
}

// TestMisfiledChildCubeFailsLoudly: a child cube that rejects a position
// its parent contains is corrupt geometry and must panic on either routing
// path, not silently park the entity out of reach of pruned queries.
func TestMisfiledChildCubeFailsLoudly(t *testing.T) {
	tr := newTestTree(t, 2, 1, 10)
	tr.Insert(at(3, 3, 3))
	tr.Insert(at(-3, -3, -3))

	root := tr.Root()
	c := root.children[root.slot(1, 1, 1)].Load()
	if c == nil {
		t.Fatal("expected the positive octant child to exist after the split")
	}
	c.bounds = Cube{Center: r3.Vec{X: 100, Y: 100, Z: 100}, Side: 1}

	defer func() {
		if recover() == nil {
			t.Fatal("routing into a corrupt child cube did not fail loudly")
		}
	}()
	tr.Insert(at(4, 4, 4))
}

func TestGrowthNonConvergencePanics(t *testing.T) {
	tr := newTestTree(t, 2, 2, 10)

	defer func() {
		if recover() == nil {
			t.Fatal("inserting an uncoverable position did not fail loudly")
		}
	}()
	// No cube contains NaN, so growth can never converge; it must abort
	// with a diagnostic instead of wrapping forever or dropping the entity.
	tr.Insert(&particle{pos: r3.Vec{X: math.NaN()}})
}
