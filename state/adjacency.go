package state

import (
	"fmt"
	"slices"
)

// AdjacencyDatabase is everything a single node advertises about itself
type AdjacencyDatabase struct {
	NodeName    string      `yaml:"node"`
	Overloaded  bool        `yaml:"overloaded,omitempty"`
	NodeLabel   int32       `yaml:"node_label,omitempty"`
	Adjacencies []Adjacency `yaml:"adjacencies"`
}

func (db AdjacencyDatabase) Clone() AdjacencyDatabase {
	db.Adjacencies = slices.Clone(db.Adjacencies)
	return db
}

// mirrors reports whether other, advertised by otherNode, is the far side of
// adj advertised by node.
func (adj Adjacency) mirrors(node, otherNode string, other Adjacency) bool {
	return adj.OtherNodeName == otherNode &&
		other.OtherNodeName == node &&
		adj.OtherIfName == other.IfName &&
		other.OtherIfName == adj.IfName
}

func ValidateAdjacencyDatabase(db AdjacencyDatabase) error {
	if db.NodeName == "" {
		return fmt.Errorf("%w: adjacency database has no node name", ErrInvalidLink)
	}
	seen := make(map[endpointName]struct{})
	for _, adj := range db.Adjacencies {
		if adj.OtherNodeName == db.NodeName {
			return fmt.Errorf("%w: %s advertises itself over %s", ErrSelfAdjacency, db.NodeName, adj.IfName)
		}
		if adj.OtherNodeName == "" || adj.IfName == "" || adj.OtherIfName == "" {
			return fmt.Errorf("%w: %s has an adjacency with missing names", ErrInvalidLink, db.NodeName)
		}
		far := endpointName{Node: adj.OtherNodeName, Iface: adj.OtherIfName}
		if _, ok := seen[far]; ok {
			return fmt.Errorf("%w: %s advertises %s%%%s twice", ErrInvalidLink, db.NodeName, far.Node, far.Iface)
		}
		seen[far] = struct{}{}
	}
	return nil
}

// LinkStateChange summarises the effect of an update on the link-state graph
type LinkStateChange struct {
	// TopologyChanged means route computation must be rerun
	TopologyChanged bool
	// LinkAttributesChanged covers labels and next-hops, which do not affect
	// path selection but do affect FIB programming
	LinkAttributesChanged bool
	NodeLabelChanged      bool
	Added                 []*Link
	Removed               []*Link
}

func (c *LinkStateChange) Merge(o LinkStateChange) {
	c.TopologyChanged = c.TopologyChanged || o.TopologyChanged
	c.LinkAttributesChanged = c.LinkAttributesChanged || o.LinkAttributesChanged
	c.NodeLabelChanged = c.NodeLabelChanged || o.NodeLabelChanged
	c.Added = append(c.Added, o.Added...)
	c.Removed = append(c.Removed, o.Removed...)
}

func (c LinkStateChange) Changed() bool {
	return c.TopologyChanged || c.LinkAttributesChanged || c.NodeLabelChanged
}
