package hashring

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// DefaultMaxRetries is the number of salted attempts to place a virtual node
// after its position collided with another one.
const DefaultMaxRetries = 5

// Ring is a consistent hashing ring.
// It is goroutine safe. Ring instances must not be copied.
// The zero value for Ring is an empty ring ready to use.
type Ring struct {
	// Name is an optional name of the ring used to label metrics.
	Name string

	// Hash is an optional hash function for positions of virtual nodes and
	// keys. If Hash is nil, DefaultHash is used. It must not be changed after
	// the first node is added.
	Hash HashFunc

	// VirtualNodes is an optional number of virtual nodes per node of weight
	// 1. The higher this number, the more equal distribution of keys this ring
	// produces and the more time is needed to update the ring.
	//
	// If VirtualNodes is zero, then the DefaultVirtualNodes is used.
	VirtualNodes int

	// MaxRetries is an optional number of salted attempts to place colliding
	// virtual node. If MaxRetries is zero, then the DefaultMaxRetries is used.
	MaxRetries int

	// Logger is an optional logger. If Logger is nil, nothing is logged.
	Logger *slog.Logger

	// OnMove is an optional callback called with every non-empty set of moves
	// right after the snapshot causing them is published. It is called with
	// the write lock held, so it must not mutate the ring.
	OnMove func(version uint64, moves []Move)

	// mu serializes write operations on the ring.
	mu sync.Mutex

	// snapshot is a currently published state of the ring.
	// Readers load it without any locking.
	snapshot atomic.Pointer[Snapshot]

	// traced is true when trace was set up.
	// It is protected by r.mu mutex.
	traced bool
	trace  traceRing
}

// Snapshot returns the current state of the ring.
// Returned snapshot is never changed by further ring mutations.
func (r *Ring) Snapshot() *Snapshot {
	if s := r.snapshot.Load(); s != nil {
		return s
	}
	return newSnapshot(r.Hash)
}

// Owner returns the node which key belongs to in the current snapshot.
func (r *Ring) Owner(key []byte) (Node, error) {
	return r.Snapshot().Owner(key)
}

// Replicas returns n distinct nodes for key in the current snapshot.
// See Snapshot.Replicas for details.
func (r *Ring) Replicas(key []byte, n int, opts ...ReplicaOption) ([]Node, error) {
	return r.Snapshot().Replicas(key, n, opts...)
}

// Has reports whether node with given id is on the ring.
func (r *Ring) Has(id string) bool {
	return r.Snapshot().Has(id)
}

// AddNode puts node n onto the ring.
// It returns key ranges which now belong to n along with their previous
// owners. Adding the first node moves nothing.
// It returns non-nil error when node with same id already exists.
func (r *Ring) AddNode(n Node) ([]Move, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setup()

	prev := r.Snapshot()
	if prev.Has(n.ID) {
		return nil, errors.Wrap(ErrNodeAlreadyPresent, "", j.KV("node", n.ID))
	}
	size, err := n.numPoints(r.virtualNodes())
	if err != nil {
		return nil, err
	}
	next := prev.clone()
	m := &member{node: n}
	m.points = make([]*point, 0, size)
	for i := 0; i < size; i++ {
		p, err := r.place(next, m, i)
		if err != nil {
			return nil, errors.Wrap(err, "", j.MKV{
				"node":  n.ID,
				"index": i,
			})
		}
		m.points = append(m.points, p)
	}
	next.members[n.ID] = m
	delete(next.departed, n.ID)

	moves := Diff(prev, next)
	r.publish(next, opAdd, moves)

	r.logger().Info("node added",
		"ring", r.Name,
		"node", n.ID,
		"virtual_nodes", size,
		"moves", len(moves),
		"version", next.version,
	)
	return moves, nil
}

// RemoveNode removes node with given id from the ring.
// It returns key ranges which belonged to the node along with their new
// owners. Removing the last node moves nothing.
//
// Removal of already removed node is a no-op. It returns non-nil error only
// when node with given id was never on the ring.
//
// Ids of removed nodes are kept until they are added again or until Replace
// is called, so rings with unbounded churn of distinct ids should be Replace'd
// from time to time.
func (r *Ring) RemoveNode(id string) ([]Move, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setup()

	prev := r.Snapshot()
	m, has := prev.members[id]
	if !has {
		if _, gone := prev.departed[id]; gone {
			r.logger().Debug("node already removed", "ring", r.Name, "node", id)
			return nil, nil
		}
		return nil, errors.Wrap(ErrNodeNotFound, "", j.KV("node", id))
	}
	next := prev.clone()
	for _, p := range m.points {
		next.remove(p.pos)
		r.trace.onDelete(p)
		assertNotExists(next, p)
	}
	delete(next.members, id)
	next.departed[id] = struct{}{}

	moves := Diff(prev, next)
	r.publish(next, opRemove, moves)

	r.logger().Info("node removed",
		"ring", r.Name,
		"node", id,
		"virtual_nodes", len(m.points),
		"moves", len(moves),
		"version", next.version,
	)
	return moves, nil
}

// Replace publishes s as the ring state, e.g. after full resync with other
// processes. It returns moves between the previous state and s.
// Nodes which were on the ring but are missing in s are treated as removed.
// Ids of nodes removed before the replacement are forgotten.
func (r *Ring) Replace(s *Snapshot) []Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setup()

	prev := r.Snapshot()
	next := s.clone()
	next.version = prev.version
	for id := range prev.members {
		if !next.Has(id) {
			next.departed[id] = struct{}{}
		}
	}
	moves := Diff(prev, next)
	r.publish(next, opReplace, moves)

	r.logger().Info("ring replaced",
		"ring", r.Name,
		"nodes", len(next.members),
		"virtual_nodes", next.Len(),
		"moves", len(moves),
		"version", next.version,
	)
	return moves
}

// place puts index-th point of m onto s, salting its position on collisions.
// r.mu must be held.
func (r *Ring) place(s *Snapshot, m *member, index int) (*point, error) {
	for salt := 0; salt <= r.maxRetries(); salt++ {
		p := &point{
			member: m,
			index:  index,
			salt:   salt,
			pos:    s.digest(pointKey(m.node.ID, index, salt)),
		}
		err := s.insert(p)
		if err == nil {
			r.trace.onInsert(p)
			return p, nil
		}
		if !errors.Is(err, ErrDuplicatePosition) {
			return nil, err
		}
		existing := s.ceil(p.pos).virtualNode()
		r.trace.onCollision(p, existing)
		collisionCounter.WithLabelValues(r.Name).Inc()
		r.logger().Warn("virtual node collision",
			"ring", r.Name,
			"node", m.node.ID,
			"index", index,
			"salt", salt,
			"position", p.pos,
			"existing_node", existing.Node,
			"existing_index", existing.Index,
		)
	}
	return nil, ErrRingFull
}

// publish makes s visible to readers.
// r.mu must be held.
func (r *Ring) publish(s *Snapshot, op string, moves []Move) {
	s.version++
	r.snapshot.Store(s)
	r.trace.onPublish(s)
	observe(r.Name, op, s, moves)
	if len(moves) > 0 && r.OnMove != nil {
		r.OnMove(s.version, moves)
	}
}

// r.mu must be held.
func (r *Ring) setup() {
	if r.traced {
		return
	}
	r.traced = true
	setupRingTrace(r)
}

func (r *Ring) virtualNodes() int {
	if n := r.VirtualNodes; n > 0 {
		return n
	}
	return DefaultVirtualNodes
}

func (r *Ring) maxRetries() int {
	if n := r.MaxRetries; n > 0 {
		return n
	}
	return DefaultMaxRetries
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func (r *Ring) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return discard
}
