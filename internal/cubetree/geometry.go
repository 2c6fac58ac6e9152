package cubetree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Cube is the axis-aligned bounding cube a node is responsible for. All
// three axes share one extent; Side must be positive.
type Cube struct {
	Center r3.Vec
	Side   float64
}

// Contains reports whether p lies within the cube. Bounds are inclusive on
// every axis, so a point on a face belongs to the cube.
func (c Cube) Contains(p r3.Vec) bool {
	h := c.Side / 2
	return p.X >= c.Center.X-h && p.X <= c.Center.X+h &&
		p.Y >= c.Center.Y-h && p.Y <= c.Center.Y+h &&
		p.Z >= c.Center.Z-h && p.Z <= c.Center.Z+h
}

// IntersectsSphere reports whether the cube overlaps the axis-aligned
// bounding box of a sphere of the given radius centered at p. Queries use
// it to prune subtrees before the exact distance check, so it may admit a
// cube the sphere itself misses, but never rejects one it touches.
func (c Cube) IntersectsSphere(p r3.Vec, radius float64) bool {
	h := c.Side/2 + radius
	return math.Abs(c.Center.X-p.X) <= h &&
		math.Abs(c.Center.Y-p.Y) <= h &&
		math.Abs(c.Center.Z-p.Z) <= h
}
