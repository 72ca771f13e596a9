package hashring

import (
	"math"
	"sort"

	"github.com/gobwas/avl"
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// Snapshot is an immutable state of the ring.
// It is safe to use from multiple goroutines.
type Snapshot struct {
	hash    HashFunc
	version uint64

	// ring is a tree holding points of all members.
	ring avl.Tree // tree<*point>

	members map[string]*member

	// departed holds ids of nodes removed from the ring. Removal of departed
	// node is a no-op. It is reset by Ring.Replace.
	departed map[string]struct{}
}

func newSnapshot(h HashFunc) *Snapshot {
	if h == nil {
		h = DefaultHash
	}
	return &Snapshot{
		hash:     h,
		members:  make(map[string]*member),
		departed: make(map[string]struct{}),
	}
}

// clone returns unpublished copy of s sharing its tree.
func (s *Snapshot) clone() *Snapshot {
	c := &Snapshot{
		hash:     s.hash,
		version:  s.version,
		ring:     s.ring,
		members:  make(map[string]*member, len(s.members)+1),
		departed: make(map[string]struct{}, len(s.departed)),
	}
	for id, m := range s.members {
		c.members[id] = m
	}
	for id := range s.departed {
		c.departed[id] = struct{}{}
	}
	return c
}

// insert puts p onto the ring.
// It must only be called on unpublished snapshot.
func (s *Snapshot) insert(p *point) error {
	tree, existing := s.ring.Insert(p)
	if existing != nil {
		return errors.Wrap(ErrDuplicatePosition, "", j.KV("position", p.pos))
	}
	s.ring = tree
	return nil
}

// remove deletes point at position pos. It is not an error if there is no
// such point.
// It must only be called on unpublished snapshot.
func (s *Snapshot) remove(pos uint64) {
	s.ring, _ = s.ring.Delete(search(pos))
}

func (s *Snapshot) digest(p []byte) uint64 {
	if s.hash == nil {
		return DefaultHash(p)
	}
	return s.hash(p)
}

// ceil returns point with the smallest position greater or equal to pos,
// wrapping to the minimum. It returns nil only if the ring is empty.
func (s *Snapshot) ceil(pos uint64) *point {
	x := s.ring.Search(search(pos))
	if x == nil {
		x = s.ring.Successor(search(pos))
	}
	if x == nil {
		x = s.ring.Min()
	}
	if x == nil {
		return nil
	}
	return x.(*point)
}

// next returns clockwise neighbour of p.
func (s *Snapshot) next(p *point) *point {
	if p.pos == math.MaxUint64 {
		return s.ceil(0)
	}
	return s.ceil(p.pos + 1)
}

// points returns all points in ascending order of their positions.
func (s *Snapshot) points() []*point {
	ps := make([]*point, 0, s.ring.Size())
	s.ring.InOrder(func(x avl.Item) bool {
		ps = append(ps, x.(*point))
		return true
	})
	return ps
}

// Version returns the number of membership changes applied to the ring
// before this snapshot was published.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of virtual nodes on the ring.
func (s *Snapshot) Len() int {
	return s.ring.Size()
}

// Has reports whether node with given id is on the ring.
func (s *Snapshot) Has(id string) bool {
	_, has := s.members[id]
	return has
}

func (s *Snapshot) Node(id string) (Node, bool) {
	m, has := s.members[id]
	if !has {
		return Node{}, false
	}
	return m.node, true
}

// Nodes returns all physical nodes sorted by id.
func (s *Snapshot) Nodes() []Node {
	ns := make([]Node, 0, len(s.members))
	for _, m := range s.members {
		ns = append(ns, m.node)
	}
	sort.Slice(ns, func(i, j int) bool {
		return ns[i].ID < ns[j].ID
	})
	return ns
}

// VirtualNodes returns virtual nodes of node id ordered by their index.
func (s *Snapshot) VirtualNodes(id string) []VirtualNode {
	m, has := s.members[id]
	if !has {
		return nil
	}
	vs := make([]VirtualNode, len(m.points))
	for i, p := range m.points {
		vs[i] = p.virtualNode()
	}
	return vs
}

// Successor returns the first virtual node with position greater or equal to
// pos, wrapping to the minimum one.
func (s *Snapshot) Successor(pos uint64) (VirtualNode, error) {
	p := s.ceil(pos)
	if p == nil {
		return VirtualNode{}, ErrEmptyRing
	}
	return p.virtualNode(), nil
}

// Owner returns the node which key belongs to.
func (s *Snapshot) Owner(key []byte) (Node, error) {
	p := s.ceil(s.digest(key))
	if p == nil {
		return Node{}, ErrEmptyRing
	}
	return p.member.node, nil
}

// Ranges returns key ranges owned by node id, ordered by their ends.
func (s *Snapshot) Ranges(id string) []Range {
	if !s.Has(id) {
		return nil
	}
	ps := s.points()
	if len(ps) == 1 {
		return []Range{{Start: ps[0].pos, End: ps[0].pos}}
	}
	var rs []Range
	for i, p := range ps {
		if p.member.node.ID != id {
			continue
		}
		prev := ps[len(ps)-1]
		if i > 0 {
			prev = ps[i-1]
		}
		rs = appendRange(rs, Range{Start: prev.pos, End: p.pos})
	}
	return rs
}

// Ownership returns a share of the hash space owned by each node.
func (s *Snapshot) Ownership() map[string]float64 {
	ret := make(map[string]float64, len(s.members))
	if s.ring.Size() == 0 {
		return ret
	}
	var prev float64
	s.ring.InOrder(func(x avl.Item) bool {
		p := x.(*point)
		v := float64(p.pos)
		ret[p.member.node.ID] += v - prev
		prev = v
		return true
	})
	// All positions greater than the maximum point fall into the minimum one.
	min := s.ring.Min().(*point)
	ret[min.member.node.ID] += math.MaxUint64 - prev

	for id, d := range ret {
		ret[id] = d / math.MaxUint64
	}
	return ret
}
