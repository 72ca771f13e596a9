package hashring

import "github.com/gobwas/avl"

// point represents a virtual node on the ring.
// Points are immutable once put onto a published snapshot.
type point struct {
	// member is a physical node the point belongs to.
	member *member

	// index is a constant index of the point within member.
	index int

	// salt is a number of collisions the point had during placement.
	salt int

	pos uint64
}

func (p *point) virtualNode() VirtualNode {
	return VirtualNode{
		Position: p.pos,
		Node:     p.member.node.ID,
		Index:    p.index,
	}
}

func (p *point) Compare(x avl.Item) int {
	return compare(p.pos, position(x))
}

// search is used to look up the tree by position.
type search uint64

func (s search) Compare(x avl.Item) int {
	return compare(uint64(s), position(x))
}

func position(x avl.Item) uint64 {
	switch v := x.(type) {
	case *point:
		return v.pos
	case search:
		return uint64(v)
	}
	panic("hashring: internal error: unexpected tree item")
}

func compare(x0, x1 uint64) int {
	if x0 < x1 {
		return -1
	}
	if x0 > x1 {
		return 1
	}
	return 0
}
