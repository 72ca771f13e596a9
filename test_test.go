package hashring

import (
	"strconv"
	"testing"
)

// digest returns hash function returning predefined values for some inputs
// and DefaultHash for the others.
func digest(t testing.TB, values map[string]uint64) HashFunc {
	return func(p []byte) uint64 {
		v, has := values[string(p)]
		if has {
			t.Logf("using digest value for %#q: %d", p, v)
			return v
		}
		return DefaultHash(p)
	}
}

func sampleKeys(n int) [][]byte {
	ks := make([][]byte, n)
	for i := range ks {
		ks[i] = []byte("key-" + strconv.Itoa(i))
	}
	return ks
}

func owners(t testing.TB, s *Snapshot, keys [][]byte) []string {
	ret := make([]string, len(keys))
	for i, k := range keys {
		n, err := s.Owner(k)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ret[i] = n.ID
	}
	return ret
}

func makeRing(t testing.TB, vnodes int, nodes map[string]float64) *Ring {
	r := &Ring{VirtualNodes: vnodes}
	for id, w := range nodes {
		if _, err := r.AddNode(Node{ID: id, Weight: w}); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func equalNodes(n int) map[string]float64 {
	ret := make(map[string]float64, n)
	for i := 0; i < n; i++ {
		ret["node"+strconv.Itoa(i)] = 1
	}
	return ret
}

func findMove(ms []Move, h uint64) (Move, bool) {
	for _, m := range ms {
		if m.Contains(h) {
			return m, true
		}
	}
	return Move{}, false
}
