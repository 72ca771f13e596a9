package hashring

import (
	"sort"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// Entry describes a single virtual node of exported snapshot.
type Entry struct {
	Position uint64 `json:"position"`
	Node     string `json:"node"`
	Index    int    `json:"index"`
}

// Export returns all virtual nodes of s ordered by their positions.
func (s *Snapshot) Export() []Entry {
	ps := s.points()
	es := make([]Entry, len(ps))
	for i, p := range ps {
		es[i] = Entry{
			Position: p.pos,
			Node:     p.member.node.ID,
			Index:    p.index,
		}
	}
	return es
}

// Import builds a snapshot from entries previously returned by Export.
// Entries must be ordered by position; equal positions result in
// ErrDuplicatePosition.
// Keys are hashed with h; if h is nil, DefaultHash is used. It must be the
// same function the exported ring used.
//
// Imported nodes have VirtualNodes set to the number of their entries.
func Import(entries []Entry, h HashFunc) (*Snapshot, error) {
	s := newSnapshot(h)
	for i, e := range entries {
		if i > 0 && e.Position < entries[i-1].Position {
			return nil, errors.Wrap(ErrInvalidSnapshot, "entries not ordered", j.MKV{
				"position": e.Position,
				"previous": entries[i-1].Position,
			})
		}
		if e.Node == "" || e.Index < 0 {
			return nil, errors.Wrap(ErrInvalidSnapshot, "bad entry", j.MKV{
				"position": e.Position,
				"node":     e.Node,
				"index":    e.Index,
			})
		}
		m, has := s.members[e.Node]
		if !has {
			m = &member{node: Node{ID: e.Node}}
			s.members[e.Node] = m
		}
		p := &point{
			member: m,
			index:  e.Index,
			pos:    e.Position,
		}
		if err := s.insert(p); err != nil {
			return nil, err
		}
		m.points = append(m.points, p)
	}
	for id, m := range s.members {
		sort.Slice(m.points, func(i, j int) bool {
			return m.points[i].index < m.points[j].index
		})
		for i := 1; i < len(m.points); i++ {
			if m.points[i-1].index == m.points[i].index {
				return nil, errors.Wrap(ErrInvalidSnapshot, "duplicate virtual node", j.MKV{
					"node":  id,
					"index": m.points[i].index,
				})
			}
		}
		m.node.VirtualNodes = len(m.points)
	}
	return s, nil
}
