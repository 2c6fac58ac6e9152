// Package main drives a cube-tree through a moving-entity swarm: seed
// particles, jitter them every tick, relocate, probe with range queries and
// a bounded-concurrency census, and report shape and latency statistics as
// JSON. It exists to exercise the index under realistic churn and to tune
// branching and leaf capacity.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cubetree/internal/config"
	"github.com/banshee-data/cubetree/internal/cubetree"
	"github.com/banshee-data/cubetree/internal/cubetree/monitor"
)

// particle is the simulated entity: a uuid-identified point with the two
// positions the tree contract requires.
type particle struct {
	ID      uuid.UUID
	pos     r3.Vec
	indexed r3.Vec
}

func (p *particle) Position() r3.Vec            { return p.pos }
func (p *particle) IndexedPosition() r3.Vec     { return p.indexed }
func (p *particle) SetIndexedPosition(v r3.Vec) { p.indexed = v }

// Result is the JSON document written to stdout after a run.
type Result struct {
	Params         config.SimParams   `json:"params"`
	FinalStats     cubetree.TreeStats `json:"final_stats"`
	TotalRelocated int                `json:"total_relocated"`
	TotalNeighbors int                `json:"total_neighbors"`
	CensusCount    int64              `json:"census_count"`
	RootSide       float64            `json:"root_side"`
	UpdateP50Ms    float64            `json:"update_p50_ms"`
	UpdateP95Ms    float64            `json:"update_p95_ms"`
	QueryP50Ms     float64            `json:"query_p50_ms"`
	QueryP95Ms     float64            `json:"query_p95_ms"`
	DurationSecs   float64            `json:"duration_secs"`
}

func main() {
	params := config.DefaultSimParams()

	var (
		configPath string
		plotDir    string
		dumpTree   bool
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to JSON sim config (flags override it)")
	flag.IntVar(&params.EntityCount, "entities", params.EntityCount, "Number of simulated entities")
	flag.IntVar(&params.Ticks, "ticks", params.Ticks, "Number of simulation ticks")
	flag.Float64Var(&params.WorldSide, "world-side", params.WorldSide, "Side length of the initial world cube")
	flag.IntVar(&params.Branching, "branching", params.Branching, "Subdivisions per axis per level")
	flag.IntVar(&params.LeafCapacity, "capacity", params.LeafCapacity, "Leaf capacity before a split")
	flag.Float64Var(&params.StepScale, "step", params.StepScale, "Per-tick move as a fraction of world side")
	flag.Float64Var(&params.TeleportRate, "teleport", params.TeleportRate, "Fraction of entities teleporting out of bounds per tick")
	flag.Float64Var(&params.QueryRadius, "radius", params.QueryRadius, "Range-query probe radius")
	flag.Int64Var(&params.Budget, "budget", params.Budget, "Traversal concurrency budget")
	flag.Int64Var(&params.Seed, "seed", params.Seed, "RNG seed")
	flag.StringVar(&plotDir, "plot-dir", "", "Write telemetry PNGs to this directory")
	flag.BoolVar(&dumpTree, "dump", false, "Dump the final tree to stderr")
	flag.BoolVar(&verbose, "verbose", false, "Enable trace logging")
	flag.Parse()

	if configPath != "" {
		fileCfg, err := config.LoadSimConfig(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		// File values apply over the defaults; flags the user passed
		// explicitly win over the file.
		merged := config.DefaultSimParams()
		fileCfg.Apply(&merged)
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if !set["entities"] {
			params.EntityCount = merged.EntityCount
		}
		if !set["ticks"] {
			params.Ticks = merged.Ticks
		}
		if !set["world-side"] {
			params.WorldSide = merged.WorldSide
		}
		if !set["branching"] {
			params.Branching = merged.Branching
		}
		if !set["capacity"] {
			params.LeafCapacity = merged.LeafCapacity
		}
		if !set["step"] {
			params.StepScale = merged.StepScale
		}
		if !set["teleport"] {
			params.TeleportRate = merged.TeleportRate
		}
		if !set["radius"] {
			params.QueryRadius = merged.QueryRadius
		}
		if !set["budget"] {
			params.Budget = merged.Budget
		}
		if !set["seed"] {
			params.Seed = merged.Seed
		}
	}

	if verbose {
		cubetree.SetLogWriters(os.Stderr, os.Stderr)
	} else {
		cubetree.SetLogWriters(os.Stderr, nil)
	}

	result, err := run(params, plotDir, dumpTree)
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}

func run(params config.SimParams, plotDir string, dumpTree bool) (*Result, error) {
	rng := rand.New(rand.NewSource(params.Seed))
	start := time.Now()

	tr, err := cubetree.New(
		cubetree.Config{Branching: params.Branching, LeafCapacity: params.LeafCapacity},
		cubetree.Cube{Side: params.WorldSide},
	)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}

	half := params.WorldSide / 2
	swarm := make([]*particle, params.EntityCount)
	for i := range swarm {
		swarm[i] = &particle{
			ID: uuid.New(),
			pos: r3.Vec{
				X: rng.Float64()*params.WorldSide - half,
				Y: rng.Float64()*params.WorldSide - half,
				Z: rng.Float64()*params.WorldSide - half,
			},
		}
		tr.Insert(swarm[i])
	}
	log.Printf("seeded %d entities in %s", params.EntityCount, time.Since(start).Round(time.Millisecond))

	var rec *monitor.Recorder
	if plotDir != "" {
		rec = monitor.NewRecorder()
	}

	step := params.StepScale * params.WorldSide
	var (
		totalRelocated int
		totalNeighbors int
		census         atomic.Int64
		updateMs       []float64
		queryMs        []float64
	)
	for tick := 0; tick < params.Ticks; tick++ {
		for _, p := range swarm {
			if rng.Float64() < params.TeleportRate {
				// Teleport well outside current coverage to force growth.
				p.pos = r3.Scale(4+rng.Float64()*4, r3.Vec{X: half, Y: half, Z: half})
				continue
			}
			p.pos = r3.Add(p.pos, r3.Vec{
				X: (rng.Float64()*2 - 1) * step,
				Y: (rng.Float64()*2 - 1) * step,
				Z: (rng.Float64()*2 - 1) * step,
			})
		}

		t0 := time.Now()
		moved := tr.Update()
		updateDur := time.Since(t0)
		totalRelocated += moved
		updateMs = append(updateMs, float64(updateDur.Microseconds())/1000.0)

		probe := swarm[rng.Intn(len(swarm))]
		t0 = time.Now()
		near := tr.QueryAroundEntity(probe, params.QueryRadius)
		queryMs = append(queryMs, float64(time.Since(t0).Microseconds())/1000.0)
		totalNeighbors += len(near)

		census.Store(0)
		tr.ForEachAsync(params.Budget, func(cubetree.Entity) bool {
			census.Add(1)
			return true
		})
		if got := census.Load(); got != int64(params.EntityCount) {
			return nil, fmt.Errorf("tick %d: census visited %d entities, expected %d", tick, got, params.EntityCount)
		}

		if rec != nil {
			rec.Sample(tick, tr.Stats(), moved, updateDur)
		}
	}

	if dumpTree {
		tr.Dump(os.Stderr)
	}
	if rec != nil {
		positions := make([]r3.Vec, len(swarm))
		for i, p := range swarm {
			positions[i] = p.Position()
		}
		if err := rec.WritePlots(plotDir, positions); err != nil {
			return nil, fmt.Errorf("write plots: %w", err)
		}
		log.Printf("wrote telemetry plots to %s", plotDir)
	}

	res := &Result{
		Params:         params,
		FinalStats:     tr.Stats(),
		TotalRelocated: totalRelocated,
		TotalNeighbors: totalNeighbors,
		CensusCount:    census.Load(),
		RootSide:       tr.Root().Bounds().Side,
		UpdateP50Ms:    quantileMs(updateMs, 0.50),
		UpdateP95Ms:    quantileMs(updateMs, 0.95),
		QueryP50Ms:     quantileMs(queryMs, 0.50),
		QueryP95Ms:     quantileMs(queryMs, 0.95),
		DurationSecs:   time.Since(start).Seconds(),
	}
	return res, nil
}

// quantileMs returns the q-quantile of the samples in milliseconds.
func quantileMs(samples []float64, q float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}
