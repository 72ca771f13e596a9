package hashring

import (
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

type replicaOptions struct {
	health HealthChecker
}

// ReplicaOption configures replica selection.
type ReplicaOption func(*replicaOptions)

// HealthyOnly makes replica selection skip nodes which h reports unhealthy.
// The checker is called synchronously for every candidate node, so it must
// answer from memory.
func HealthyOnly(h HealthChecker) ReplicaOption {
	return func(o *replicaOptions) {
		o.health = h
	}
}

// Replicas returns n distinct nodes responsible for key, ordered clockwise
// starting from the key's owner.
//
// If there are less than n suitable nodes, Replicas returns all nodes it
// found along with ErrInsufficientNodes. It is up to the caller to accept
// partial replication or not.
func (s *Snapshot) Replicas(key []byte, n int, opts ...ReplicaOption) ([]Node, error) {
	if n <= 0 {
		return nil, nil
	}
	var o replicaOptions
	for _, opt := range opts {
		opt(&o)
	}
	p := s.ceil(s.digest(key))
	if p == nil {
		return nil, ErrEmptyRing
	}
	var (
		ret  = make([]Node, 0, n)
		seen = make(map[*member]bool, n)
	)
	for i := s.ring.Size(); i > 0 && len(ret) < n && len(seen) < len(s.members); i-- {
		if m := p.member; !seen[m] {
			seen[m] = true
			if o.health == nil || o.health.IsHealthy(m.node.ID) {
				ret = append(ret, m.node)
			}
		}
		p = s.next(p)
	}
	if len(ret) < n {
		return ret, errors.Wrap(ErrInsufficientNodes, "", j.MKV{
			"want": n,
			"have": len(ret),
		})
	}
	return ret, nil
}
