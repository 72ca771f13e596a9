package hashring

import "sync"

// Health is a state of a physical node as seen by an external health check.
type Health uint8

const (
	Healthy Health = iota
	Suspect
	Down
)

func (h Health) String() string {
	switch h {
	case Healthy:
		return "HEALTHY"
	case Suspect:
		return "SUSPECT"
	case Down:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// HealthChecker reports whether a node may serve requests.
type HealthChecker interface {
	IsHealthy(id string) bool
}

// HealthFunc is an adapter to use ordinary functions as HealthChecker.
type HealthFunc func(id string) bool

func (f HealthFunc) IsHealthy(id string) bool {
	return f(id)
}

// HealthTable is a memoized table of nodes health filled by some health
// checking process. Nodes never reported are considered healthy; suspected
// nodes are still healthy, only Down nodes are not.
// The zero value for HealthTable is ready to use.
type HealthTable struct {
	mu    sync.RWMutex
	state map[string]Health
}

// Set records health state h of node id.
func (t *HealthTable) Set(id string, h Health) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		t.state = make(map[string]Health)
	}
	t.state[id] = h
}

// Get returns last recorded state of node id.
func (t *HealthTable) Get(id string) (h Health, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok = t.state[id]
	return h, ok
}

// Forget drops any recorded state of node id.
func (t *HealthTable) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.state, id)
}

func (t *HealthTable) IsHealthy(id string) bool {
	h, _ := t.Get(id)
	return h != Down
}
