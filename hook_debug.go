//go:build hashring_debug
// +build hashring_debug

package hashring

import (
	"fmt"
)

const debug = true

func assertNotExists(s *Snapshot, p *point) {
	if x := s.ring.Search(p); x != nil && x.(*point) == p {
		// NOTE: x could be another point placed at the same position later.
		panic(fmt.Sprintf(
			"hashring: internal error: point must not exist on the ring: %s",
			pointInfo(p),
		))
	}
}

func setupRingTrace(r *Ring) {
	log := r.logger().With("ring", r.Name)
	r.trace = r.trace.Compose(traceRing{
		OnInsert: func(p *point) {
			log.Debug("inserted point", "point", pointInfo(p))
		},
		OnCollision: func(p *point, existing VirtualNode) {
			log.Debug("collision",
				"point", pointInfo(p),
				"existing_node", existing.Node,
				"existing_index", existing.Index,
			)
		},
		OnDelete: func(p *point) {
			log.Debug("deleted point", "point", pointInfo(p))
		},
		OnPublish: func(s *Snapshot) {
			log.Debug("published snapshot",
				"version", s.Version(),
				"points", s.Len(),
			)
		},
	})
}

func pointInfo(p *point) string {
	return fmt.Sprintf(
		"%p: %s[%d] salt=%d %d",
		p, p.member.node.ID, p.index, p.salt, p.pos,
	)
}
