package cubetree

import "fmt"

// Config fixes the shape of a tree at construction time.
type Config struct {
	// Branching is the number of subdivisions per axis per level; a node
	// fans out into Branching³ child slots.
	Branching int `json:"branching"`

	// LeafCapacity is the number of entries a leaf holds before one more
	// insert forces it to split.
	LeafCapacity int `json:"leaf_capacity"`
}

// DefaultConfig returns the configuration used when callers have no
// opinion: an octree with small leaves.
func DefaultConfig() Config {
	return Config{Branching: 2, LeafCapacity: 8}
}

// Validate checks that the configuration describes a buildable tree.
func (c Config) Validate() error {
	if c.Branching < 2 {
		return fmt.Errorf("branching must be at least 2, got %d", c.Branching)
	}
	if c.LeafCapacity < 1 {
		return fmt.Errorf("leaf capacity must be at least 1, got %d", c.LeafCapacity)
	}
	return nil
}

// fanout is the number of child slots per node.
func (c Config) fanout() int { return c.Branching * c.Branching * c.Branching }
