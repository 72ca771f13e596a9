package hashring

import "fmt"

// Range is a range of positions on the ring from Start exclusive to End
// inclusive. It wraps around zero when Start >= End. Range with Start equal
// to End covers the whole ring.
type Range struct {
	Start uint64
	End   uint64
}

// Contains reports whether position h is within r.
func (r Range) Contains(h uint64) bool {
	switch {
	case r.Start < r.End:
		return r.Start < h && h <= r.End
	case r.Start > r.End:
		return h > r.Start || h <= r.End
	default:
		return true
	}
}

func (r Range) String() string {
	return fmt.Sprintf("(%#016x, %#016x]", r.Start, r.End)
}

// Move tells that keys within Range changed their owner from node From to
// node To. Data of those keys must be copied to To before From drops it.
type Move struct {
	Range
	From string
	To   string
}

func (m Move) String() string {
	return fmt.Sprintf("%s %s -> %s", m.Range, m.From, m.To)
}

// Diff returns ranges which changed their owner between prev and next.
// It returns nil if either of snapshots is empty.
func Diff(prev, next *Snapshot) []Move {
	if prev.Len() == 0 || next.Len() == 0 {
		return nil
	}
	// Within a segment between two neighbour positions of both rings the owner
	// does not change in any of them.
	bounds := mergePositions(prev.points(), next.points())

	var moves []Move
	last := bounds[len(bounds)-1]
	for _, pos := range bounds {
		var (
			from = prev.ceil(pos).member.node.ID
			to   = next.ceil(pos).member.node.ID
		)
		if from != to {
			moves = appendMove(moves, Move{
				Range: Range{Start: last, End: pos},
				From:  from,
				To:    to,
			})
		}
		last = pos
	}
	return wrapMoves(moves)
}

// mergePositions returns sorted unique positions of both sorted slices.
func mergePositions(a, b []*point) []uint64 {
	ret := make([]uint64, 0, len(a)+len(b))
	push := func(v uint64) {
		if n := len(ret); n > 0 && ret[n-1] == v {
			return
		}
		ret = append(ret, v)
	}
	var i, k int
	for i < len(a) && k < len(b) {
		if a[i].pos <= b[k].pos {
			push(a[i].pos)
			i++
		} else {
			push(b[k].pos)
			k++
		}
	}
	for ; i < len(a); i++ {
		push(a[i].pos)
	}
	for ; k < len(b); k++ {
		push(b[k].pos)
	}
	return ret
}

func appendMove(ms []Move, m Move) []Move {
	if n := len(ms); n > 0 {
		last := &ms[n-1]
		if last.End == m.Start && last.From == m.From && last.To == m.To {
			last.End = m.End
			return ms
		}
	}
	return append(ms, m)
}

// wrapMoves joins the last move with the first one if they are adjacent
// through zero.
func wrapMoves(ms []Move) []Move {
	n := len(ms)
	if n < 2 {
		return ms
	}
	first, last := ms[0], ms[n-1]
	if last.End != first.Start || last.From != first.From || last.To != first.To {
		return ms
	}
	ms[0].Start = last.Start
	return ms[:n-1]
}

func appendRange(rs []Range, r Range) []Range {
	if n := len(rs); n > 0 && rs[n-1].End == r.Start {
		rs[n-1].End = r.End
		return rs
	}
	return append(rs, r)
}
