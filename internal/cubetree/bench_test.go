package cubetree

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func benchPoints(n int, side float64) []*particle {
	rng := rand.New(rand.NewSource(1))
	pts := make([]*particle, n)
	for i := range pts {
		pts[i] = at(rng.Float64()*side-side/2, rng.Float64()*side-side/2, rng.Float64()*side-side/2)
	}
	return pts
}

func BenchmarkInsert(b *testing.B) {
	pts := benchPoints(b.N, 1000)
	tr, _ := New(DefaultConfig(), Cube{Side: 1000})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.Insert(pts[i])
	}
}

func BenchmarkQueryRange(b *testing.B) {
	tr, _ := New(DefaultConfig(), Cube{Side: 1000})
	for _, p := range benchPoints(100000, 1000) {
		tr.Insert(p)
	}
	rng := rand.New(rand.NewSource(2))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		center := r3.Vec{X: rng.Float64()*1000 - 500, Y: rng.Float64()*1000 - 500, Z: rng.Float64()*1000 - 500}
		tr.QueryRange(center, 25)
	}
}

func BenchmarkUpdate(b *testing.B) {
	tr, _ := New(DefaultConfig(), Cube{Side: 1000})
	pts := benchPoints(50000, 1000)
	for _, p := range pts {
		tr.Insert(p)
	}
	rng := rand.New(rand.NewSource(3))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		for _, p := range pts[:5000] {
			p.pos = r3.Add(p.pos, r3.Vec{X: rng.Float64() - 0.5, Y: rng.Float64() - 0.5, Z: rng.Float64() - 0.5})
		}
		b.StartTimer()
		tr.Update()
	}
}

func BenchmarkForEachAsync(b *testing.B) {
	tr, _ := New(DefaultConfig(), Cube{Side: 1000})
	for _, p := range benchPoints(100000, 1000) {
		tr.Insert(p)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tr.ForEachAsync(8, func(Entity) bool { return true })
	}
}
