// Package config loads tuning files for the development tools in cmd/tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SimParams are the resolved parameters of a swarm simulation run.
type SimParams struct {
	EntityCount  int     `json:"entity_count"`
	WorldSide    float64 `json:"world_side"`
	Branching    int     `json:"branching"`
	LeafCapacity int     `json:"leaf_capacity"`
	Ticks        int     `json:"ticks"`
	StepScale    float64 `json:"step_scale"`    // per-tick move as a fraction of world side
	TeleportRate float64 `json:"teleport_rate"` // fraction of entities jumping outside the world each tick
	QueryRadius  float64 `json:"query_radius"`
	Budget       int64   `json:"budget"` // traversal concurrency budget
	Seed         int64   `json:"seed"`
}

// DefaultSimParams returns the parameters used when no config file or flag
// overrides them.
func DefaultSimParams() SimParams {
	return SimParams{
		EntityCount:  2000,
		WorldSide:    1000,
		Branching:    2,
		LeafCapacity: 8,
		Ticks:        100,
		StepScale:    0.005,
		TeleportRate: 0.001,
		QueryRadius:  25,
		Budget:       8,
		Seed:         1,
	}
}

// SimConfig mirrors SimParams with pointer fields so a partial JSON file
// only overrides what it names.
type SimConfig struct {
	EntityCount  *int     `json:"entity_count,omitempty"`
	WorldSide    *float64 `json:"world_side,omitempty"`
	Branching    *int     `json:"branching,omitempty"`
	LeafCapacity *int     `json:"leaf_capacity,omitempty"`
	Ticks        *int     `json:"ticks,omitempty"`
	StepScale    *float64 `json:"step_scale,omitempty"`
	TeleportRate *float64 `json:"teleport_rate,omitempty"`
	QueryRadius  *float64 `json:"query_radius,omitempty"`
	Budget       *int64   `json:"budget,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
}

// LoadSimConfig loads a SimConfig from a JSON file. Fields omitted from the
// file stay nil, so partial configs are safe.
func LoadSimConfig(path string) (*SimConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &SimConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *SimConfig) Validate() error {
	if c.EntityCount != nil && *c.EntityCount < 1 {
		return fmt.Errorf("entity_count must be positive, got %d", *c.EntityCount)
	}
	if c.WorldSide != nil && *c.WorldSide <= 0 {
		return fmt.Errorf("world_side must be positive, got %g", *c.WorldSide)
	}
	if c.Branching != nil && *c.Branching < 2 {
		return fmt.Errorf("branching must be at least 2, got %d", *c.Branching)
	}
	if c.LeafCapacity != nil && *c.LeafCapacity < 1 {
		return fmt.Errorf("leaf_capacity must be at least 1, got %d", *c.LeafCapacity)
	}
	if c.Ticks != nil && *c.Ticks < 1 {
		return fmt.Errorf("ticks must be positive, got %d", *c.Ticks)
	}
	if c.TeleportRate != nil && (*c.TeleportRate < 0 || *c.TeleportRate > 1) {
		return fmt.Errorf("teleport_rate must be between 0 and 1, got %g", *c.TeleportRate)
	}
	if c.QueryRadius != nil && *c.QueryRadius <= 0 {
		return fmt.Errorf("query_radius must be positive, got %g", *c.QueryRadius)
	}
	return nil
}

// Apply overlays the set fields onto p.
func (c *SimConfig) Apply(p *SimParams) {
	if c.EntityCount != nil {
		p.EntityCount = *c.EntityCount
	}
	if c.WorldSide != nil {
		p.WorldSide = *c.WorldSide
	}
	if c.Branching != nil {
		p.Branching = *c.Branching
	}
	if c.LeafCapacity != nil {
		p.LeafCapacity = *c.LeafCapacity
	}
	if c.Ticks != nil {
		p.Ticks = *c.Ticks
	}
	if c.StepScale != nil {
		p.StepScale = *c.StepScale
	}
	if c.TeleportRate != nil {
		p.TeleportRate = *c.TeleportRate
	}
	if c.QueryRadius != nil {
		p.QueryRadius = *c.QueryRadius
	}
	if c.Budget != nil {
		p.Budget = *c.Budget
	}
	if c.Seed != nil {
		p.Seed = *c.Seed
	}
}
