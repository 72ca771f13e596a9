package hashring

import (
	"math"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// DefaultVirtualNodes is the number of virtual nodes placed for a node of
// weight 1 when neither Ring nor Node specify it.
const DefaultVirtualNodes = 160

// MaxVirtualNodes is the maximum number of virtual nodes of a single node.
const MaxVirtualNodes = 1 << 20

// Node is a physical node: a server, shard or replica addressed by ID.
type Node struct {
	// ID is an opaque identifier of the node, e.g. "host:port".
	ID string

	// Weight scales the number of virtual nodes linearly. Zero means 1.
	Weight float64

	// VirtualNodes overrides the ring's number of virtual nodes per unit of
	// weight for this node. Zero means the ring's value.
	VirtualNodes int
}

func (n Node) validate() error {
	switch {
	case n.ID == "":
		return errors.Wrap(ErrInvalidNode, "empty id")
	case n.Weight < 0 || math.IsNaN(n.Weight) || math.IsInf(n.Weight, 0):
		return errors.Wrap(ErrInvalidNode, "bad weight", j.MKV{
			"node":   n.ID,
			"weight": n.Weight,
		})
	case n.VirtualNodes < 0:
		return errors.Wrap(ErrInvalidNode, "negative virtual nodes", j.MKV{
			"node":          n.ID,
			"virtual_nodes": n.VirtualNodes,
		})
	case n.VirtualNodes > MaxVirtualNodes:
		return errors.Wrap(ErrInvalidNode, "too many virtual nodes", j.MKV{
			"node":          n.ID,
			"virtual_nodes": n.VirtualNodes,
		})
	}
	return nil
}

// numPoints returns number of virtual nodes to place for n given ring's base
// number of virtual nodes. It is never less than one and never greater than
// MaxVirtualNodes.
func (n Node) numPoints(base int) (int, error) {
	if n.VirtualNodes > 0 {
		base = n.VirtualNodes
	}
	w := n.Weight
	if w == 0 {
		w = 1
	}
	x := math.Round(float64(base) * w)
	if x > MaxVirtualNodes {
		return 0, errors.Wrap(ErrInvalidNode, "too many virtual nodes", j.MKV{
			"node":          n.ID,
			"weight":        n.Weight,
			"virtual_nodes": base,
		})
	}
	if x < 1 {
		return 1, nil
	}
	return int(x), nil
}

// VirtualNode is one of positions owned by a physical node.
type VirtualNode struct {
	Position uint64
	Node     string
	Index    int
}

// member holds a node with its points on some snapshot.
type member struct {
	node   Node
	points []*point
}
