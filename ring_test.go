package hashring

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/luno/jettison/errors"
)

func ExampleRing() {
	var ring Ring

	// Insert four servers on the ring with equal weight.
	ring.AddNode(Node{ID: "server01"})
	ring.AddNode(Node{ID: "server02"})
	ring.AddNode(Node{ID: "server03"})
	ring.AddNode(Node{ID: "server04"})

	replicas, err := ring.Replicas([]byte("user:42"), 3)
	if err != nil {
		panic(err)
	}
	fmt.Println(len(replicas))

	// Only ranges taken by the new server change their owner.
	moves, _ := ring.AddNode(Node{ID: "server05"})
	taken := len(moves) > 0
	for _, m := range moves {
		taken = taken && m.To == "server05"
	}
	fmt.Println(taken)

	// Output:
	// 3
	// true
}

func TestRingConcurrency(t *testing.T) {
	for _, test := range []struct {
		numReader int
		numWriter int
	}{
		{
			numReader: 2,
			numWriter: 1,
		},
		{
			numReader: 1,
			numWriter: 2,
		},
	} {
		name := fmt.Sprintf("%dr-%dw", test.numReader, test.numWriter)
		t.Run(name, func(t *testing.T) {
			var (
				r          = Ring{VirtualNodes: 16}
				readerDone = make(chan error)
				writerDone = make(chan error)
			)
			for i := 0; i < test.numReader; i++ {
				go func() {
					for {
						select {
						case readerDone <- nil:
							return
						default:
							key := []byte(strconv.Itoa(rand.Intn(1000000)))
							s := r.Snapshot()
							if n := s.Len(); n%16 != 0 {
								readerDone <- fmt.Errorf("partially applied change: %d points", n)
								return
							}
							_, err := s.Owner(key)
							if err != nil && s.Len() > 0 {
								readerDone <- err
								return
							}
						}
					}
				}()
			}
			for i := 0; i < test.numWriter; i++ {
				go func(base int) {
					const numItem = 100
					for i := 0; i < numItem; i++ {
						id := strconv.Itoa(base*numItem + i)
						if _, err := r.AddNode(Node{ID: id}); err != nil {
							writerDone <- fmt.Errorf("can't add node: %v", err)
							return
						}
						if i%3 == 0 {
							if _, err := r.RemoveNode(id); err != nil {
								writerDone <- fmt.Errorf("can't remove node: %v", err)
								return
							}
						}
						time.Sleep(time.Millisecond)
					}
					writerDone <- nil
				}(i)
			}
			for i := 0; i < test.numWriter; i++ {
				if err := <-writerDone; err != nil {
					t.Fatal(err)
				}
			}
			for i := 0; i < test.numReader; i++ {
				if err := <-readerDone; err != nil {
					t.Fatal(err)
				}
			}
			s := r.Snapshot()
			if exp := uint64(test.numWriter * (100 + 34)); s.Version() != exp {
				t.Fatalf("unexpected version: %d; want %d", s.Version(), exp)
			}
			if exp := test.numWriter * 66 * 16; s.Len() != exp {
				t.Fatalf("unexpected number of points: %d; want %d", s.Len(), exp)
			}
		})
	}
}

type distCase struct {
	name    string
	ring    map[string]float64
	dist    map[string]float64
	prec    float64
	actions []func(*Ring) error
}

var distCases = []distCase{
	{
		name: "single",
		ring: map[string]float64{
			"foo": 1,
		},
		dist: map[string]float64{
			"foo": 100,
		},
		prec: 1e-6,
	},
	{
		name: "double",
		ring: map[string]float64{
			"foo": 1,
			"bar": 1,
		},
		dist: map[string]float64{
			"foo": 50,
			"bar": 50,
		},
		prec: 4,
	},
	{
		name: "weighted",
		ring: map[string]float64{
			"foo": 1,
			"bar": 2,
		},
		dist: map[string]float64{
			"foo": 33.3,
			"bar": 66.6,
		},
		prec: 4,
	},
	{
		name: "weighted",
		ring: map[string]float64{
			"foo": 1,
			"bar": 1,
			"baz": 3,
		},
		dist: map[string]float64{
			"foo": 20,
			"bar": 20,
			"baz": 60,
		},
		prec: 4,
	},
	{
		name: "weighted",
		ring: map[string]float64{
			"foo": 1,
			"bar": 1,
			"baz": 1,
			"baq": 2,
		},
		dist: map[string]float64{
			"foo": 20,
			"bar": 20,
			"baz": 20,
			"baq": 40,
		},
		prec: 4,
	},
	{
		name: "delete",
		ring: map[string]float64{
			"foo": 1,
			"bar": 2,
			"baz": 3,
		},
		actions: []func(*Ring) error{
			removeNode("bar"),
		},
		dist: map[string]float64{
			"foo": 25,
			"baz": 75,
		},
		prec: 4,
	},
	{
		name: "readd",
		ring: map[string]float64{
			"foo": 1,
			"bar": 2,
		},
		actions: []func(*Ring) error{
			removeNode("foo"),
			addNode("foo", 3),
		},
		dist: map[string]float64{
			"foo": 60,
			"bar": 40,
		},
		prec: 4,
	},
}

func TestRingOwner(t *testing.T) {
	for _, test := range distCases {
		t.Run(test.name, func(t *testing.T) {
			r := makeRing(t, 1020, test.ring)
			applyActions(t, r, test.actions...)
			act := getDistribution(t, r.Snapshot(), 1e5)
			assertDistribution(t, act, test.dist, test.prec)
		})
	}
}

func TestRingOwnership(t *testing.T) {
	for _, test := range distCases {
		t.Run(test.name, func(t *testing.T) {
			r := makeRing(t, 1020, test.ring)
			applyActions(t, r, test.actions...)
			act := r.Snapshot().Ownership()
			var sum float64
			for key, d := range act {
				sum += d
				act[key] = d * 100
			}
			if math.Abs(sum-1) > 1e-6 {
				t.Fatalf("ownership sums up to %f; want 1", sum)
			}
			assertDistribution(t, act, test.dist, test.prec)
		})
	}
}

func TestRingOwnerEmpty(t *testing.T) {
	var r Ring
	if _, err := r.Owner([]byte("42")); err != ErrEmptyRing {
		t.Fatalf("unexpected error: %v; want %v", err, ErrEmptyRing)
	}
	if _, err := r.Snapshot().Successor(42); err != ErrEmptyRing {
		t.Fatalf("unexpected error: %v; want %v", err, ErrEmptyRing)
	}
}

func TestRingOwnerDeterminism(t *testing.T) {
	var (
		ids  = []string{"a:1", "b:2", "c:3", "d:4", "e:5"}
		keys = sampleKeys(1000)
	)
	r0 := Ring{VirtualNodes: 100}
	r1 := Ring{VirtualNodes: 100}
	for i := range ids {
		if _, err := r0.AddNode(Node{ID: ids[i]}); err != nil {
			t.Fatal(err)
		}
		if _, err := r1.AddNode(Node{ID: ids[len(ids)-1-i]}); err != nil {
			t.Fatal(err)
		}
	}
	o0 := owners(t, r0.Snapshot(), keys)
	o1 := owners(t, r1.Snapshot(), keys)
	again := owners(t, r0.Snapshot(), keys)
	for i := range keys {
		if o0[i] != o1[i] || o0[i] != again[i] {
			t.Fatalf(
				"owner of %q differs: %s vs %s vs %s",
				keys[i], o0[i], o1[i], again[i],
			)
		}
	}
}

// TestRingRelocation tests that after addition or deletion of any server
// only about 1/N of keys get relocated.
func TestRingRelocation(t *testing.T) {
	const (
		precFactor = 2
		numKeys    = 100000
	)
	keys := sampleKeys(numKeys)
	for _, n := range []int{5, 8, 10} {
		nodes := equalNodes(n)
		ids := make([]string, 0, n)
		for id := range nodes {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		t.Run(fmt.Sprintf("%d/add", n), func(t *testing.T) {
			r := makeRing(t, 160, nodes)
			prev := owners(t, r.Snapshot(), keys)
			if _, err := r.AddNode(Node{ID: "new"}); err != nil {
				t.Fatal(err)
			}
			next := owners(t, r.Snapshot(), keys)

			var moved int
			for i := range keys {
				if prev[i] == next[i] {
					continue
				}
				if next[i] != "new" {
					t.Fatalf(
						"key %q moved from %s to %s; want to new",
						keys[i], prev[i], next[i],
					)
				}
				moved++
			}
			assertRelocation(t, moved, numKeys, n+1, precFactor)
		})
		for _, del := range ids[:2] {
			t.Run(fmt.Sprintf("%d/delete/%s", n, del), func(t *testing.T) {
				r := makeRing(t, 160, nodes)
				prev := owners(t, r.Snapshot(), keys)
				if _, err := r.RemoveNode(del); err != nil {
					t.Fatal(err)
				}
				next := owners(t, r.Snapshot(), keys)

				var moved int
				for i := range keys {
					if prev[i] == next[i] {
						continue
					}
					if prev[i] != del {
						t.Fatalf(
							"key %q moved from %s to %s; want only keys of %s",
							keys[i], prev[i], next[i], del,
						)
					}
					moved++
				}
				assertRelocation(t, moved, numKeys, n, precFactor)
			})
		}
	}
}

func TestRingUniformity(t *testing.T) {
	for _, n := range []int{5, 8, 16} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			r := makeRing(t, 160, equalNodes(n))
			dist := getDistribution(t, r.Snapshot(), 1e5)
			if len(dist) != n {
				t.Fatalf("unexpected number of owners: %d; want %d", len(dist), n)
			}
			mean := 100 / float64(n)
			for id, d := range dist {
				if d > 2*mean {
					t.Errorf(
						"node %s owns %.2f%% of keys; want at most %.2f%%",
						id, d, 2*mean,
					)
				}
			}
		})
	}
}

// TestRingAddScenario tests that after adding a node keys either stay on their
// owner or move to the new node.
func TestRingAddScenario(t *testing.T) {
	var r Ring
	r.VirtualNodes = 3
	for _, id := range []string{"A", "B", "C"} {
		if _, err := r.AddNode(Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	keys := append(sampleKeys(10000), []byte("user:42"))
	prev := owners(t, r.Snapshot(), keys)

	moves, err := r.AddNode(Node{ID: "D"})
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) == 0 || len(moves) > 3 {
		t.Fatalf("unexpected number of moves: %d", len(moves))
	}
	next := owners(t, r.Snapshot(), keys)
	for i, k := range keys {
		if next[i] != prev[i] && next[i] != "D" {
			t.Fatalf(
				"key %q moved from %s to %s; want %s or D",
				k, prev[i], next[i], prev[i],
			)
		}
	}
}

func TestRingCollisions(t *testing.T) {
	r := Ring{
		VirtualNodes: 1,
		Hash: digest(t, map[string]uint64{
			"foo:0": 42,
			"bar:0": 42,
		}),
	}
	var collisions []VirtualNode
	r.trace = traceRing{
		OnCollision: func(p *point, existing VirtualNode) {
			collisions = append(collisions, existing)
		},
	}
	applyActions(t, &r,
		addNode("foo", 1),
		addNode("bar", 1),
	)
	if n := len(collisions); n != 1 {
		t.Fatalf("unexpected number of collisions: %d; want 1", n)
	}
	if exp := (VirtualNode{Position: 42, Node: "foo"}); collisions[0] != exp {
		t.Fatalf("unexpected collision: %+v; want %+v", collisions[0], exp)
	}
	vs := r.Snapshot().VirtualNodes("bar")
	if exp := DefaultHash([]byte("bar:0:1")); len(vs) != 1 || vs[0].Position != exp {
		t.Fatalf("unexpected bar points: %+v; want salted position %d", vs, exp)
	}
	v, err := r.Snapshot().Successor(42)
	if err != nil {
		t.Fatal(err)
	}
	if v.Node != "foo" {
		t.Fatalf("unexpected owner of position 42: %s", v.Node)
	}

	// Salted point stays where it is after deletion of the point it collided
	// with.
	applyActions(t, &r, removeNode("foo"))
	vs = r.Snapshot().VirtualNodes("bar")
	if exp := DefaultHash([]byte("bar:0:1")); vs[0].Position != exp {
		t.Fatalf("unexpected bar position after delete: %d; want %d", vs[0].Position, exp)
	}
	if n := r.Snapshot().Len(); n != 1 {
		t.Fatalf("unexpected ring size: %d", n)
	}
}

func TestRingFull(t *testing.T) {
	var attempts int
	r := Ring{
		VirtualNodes: 2,
		Hash: func([]byte) uint64 {
			return 7
		},
	}
	r.trace = traceRing{
		OnCollision: func(*point, VirtualNode) {
			attempts++
		},
	}
	_, err := r.AddNode(Node{ID: "foo"})
	if !errors.Is(err, ErrRingFull) {
		t.Fatalf("unexpected error: %v; want %v", err, ErrRingFull)
	}
	if attempts != DefaultMaxRetries+1 {
		t.Fatalf("unexpected number of collisions: %d", attempts)
	}
	// Batch of points must not be published partially.
	s := r.Snapshot()
	if s.Len() != 0 || s.Has("foo") || s.Version() != 0 {
		t.Fatalf("unexpected ring state: %d points, version %d", s.Len(), s.Version())
	}
}

func TestRingSnapshotIsolation(t *testing.T) {
	r := makeRing(t, 50, equalNodes(3))
	keys := sampleKeys(1000)

	s0 := r.Snapshot()
	exp := owners(t, s0, keys)
	if _, err := r.AddNode(Node{ID: "new"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RemoveNode("node0"); err != nil {
		t.Fatal(err)
	}
	act := owners(t, s0, keys)
	for i := range keys {
		if act[i] != exp[i] {
			t.Fatalf("owner of %q changed in old snapshot: %s -> %s", keys[i], exp[i], act[i])
		}
	}
	if s0.Len() != 150 || !s0.Has("node0") || s0.Has("new") {
		t.Fatalf("old snapshot was changed")
	}
	if v0, v1 := s0.Version(), r.Snapshot().Version(); v1 != v0+2 {
		t.Fatalf("unexpected versions: %d and %d", v0, v1)
	}
}

func applyActions(t testing.TB, r *Ring, actions ...func(*Ring) error) {
	for _, a := range actions {
		if err := a(r); err != nil {
			t.Fatalf("can't apply action: %v", err)
		}
	}
}

func addNode(id string, w float64) func(*Ring) error {
	return func(r *Ring) error {
		_, err := r.AddNode(Node{ID: id, Weight: w})
		return err
	}
}

func removeNode(id string) func(*Ring) error {
	return func(r *Ring) error {
		_, err := r.RemoveNode(id)
		return err
	}
}

func assertDistribution(t testing.TB, act, exp map[string]float64, prec float64) {
	for key, act := range act {
		exp := exp[key]
		diff := act - exp
		if math.Abs(diff) > prec {
			t.Errorf(
				"unexpected distribution for %q key: %.2f; want %.2f "+
					"(±%.2f%%, diff is %+.2f%%))",
				key, act, exp, prec, diff,
			)
		}
	}
}

func assertRelocation(t testing.TB, moved, total, n int, precFactor float64) {
	act := float64(moved) / float64(total)
	exp := 1 / float64(n)
	if act > exp*precFactor || act < exp/precFactor {
		t.Fatalf(
			"unexpected relocation size: %.4f; want %.4f (x%.1f)",
			act, exp, precFactor,
		)
	}
}

func getDistribution(t testing.TB, s *Snapshot, numGet int) map[string]float64 {
	tmp := make(map[string]int)
	act := make(map[string]float64)
	for i := 0; i < numGet; i++ {
		n, err := s.Owner([]byte(strconv.Itoa(rand.Int())))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tmp[n.ID]++
	}
	for key, num := range tmp {
		act[key] = float64(num) / float64(numGet) * 100
	}
	return act
}
