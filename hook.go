package hashring

// traceRing holds optional callbacks called while ring is being mutated.
type traceRing struct {
	OnInsert    func(*point)
	OnCollision func(p *point, existing VirtualNode)
	OnDelete    func(*point)
	OnPublish   func(*Snapshot)
}

// Compose returns traceRing calling callbacks of t and then of x.
func (t traceRing) Compose(x traceRing) traceRing {
	var ret traceRing
	switch {
	case t.OnInsert == nil:
		ret.OnInsert = x.OnInsert
	case x.OnInsert == nil:
		ret.OnInsert = t.OnInsert
	default:
		ret.OnInsert = func(p *point) {
			t.OnInsert(p)
			x.OnInsert(p)
		}
	}
	switch {
	case t.OnCollision == nil:
		ret.OnCollision = x.OnCollision
	case x.OnCollision == nil:
		ret.OnCollision = t.OnCollision
	default:
		ret.OnCollision = func(p *point, v VirtualNode) {
			t.OnCollision(p, v)
			x.OnCollision(p, v)
		}
	}
	switch {
	case t.OnDelete == nil:
		ret.OnDelete = x.OnDelete
	case x.OnDelete == nil:
		ret.OnDelete = t.OnDelete
	default:
		ret.OnDelete = func(p *point) {
			t.OnDelete(p)
			x.OnDelete(p)
		}
	}
	switch {
	case t.OnPublish == nil:
		ret.OnPublish = x.OnPublish
	case x.OnPublish == nil:
		ret.OnPublish = t.OnPublish
	default:
		ret.OnPublish = func(s *Snapshot) {
			t.OnPublish(s)
			x.OnPublish(s)
		}
	}
	return ret
}

func (t traceRing) onInsert(p *point) {
	if fn := t.OnInsert; fn != nil {
		fn(p)
	}
}

func (t traceRing) onCollision(p *point, existing VirtualNode) {
	if fn := t.OnCollision; fn != nil {
		fn(p, existing)
	}
}

func (t traceRing) onDelete(p *point) {
	if fn := t.OnDelete; fn != nil {
		fn(p)
	}
}

func (t traceRing) onPublish(s *Snapshot) {
	if fn := t.OnPublish; fn != nil {
		fn(s)
	}
}
