package main

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/gobwas/avl"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	hashring "github.com/Sarankumar18/study-hub-sub003"
)

type distConfig struct {
	parallelism int
	keys        int
	servers     int
	lo, hi      int
	vnodes      []int
	csv         bool
	silent      bool
}

func newDistCmd() *cobra.Command {
	var c distConfig
	cmd := &cobra.Command{
		Use:   "dist",
		Short: "Measure key distribution for different numbers of virtual nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDist(cmd.OutOrStdout(), cmd.ErrOrStderr(), c)
		},
	}
	cmd.Flags().IntVar(&c.parallelism, "parallelism", runtime.NumCPU(), "number of concurrent processors")
	cmd.Flags().IntVar(&c.keys, "keys", 1e6, "number of keys to spread on ring")
	cmd.Flags().IntVar(&c.servers, "servers", 10, "number of servers to place on ring")
	cmd.Flags().IntVar(&c.lo, "lo", 0, "number of virtual nodes to start from")
	cmd.Flags().IntVar(&c.hi, "hi", 0, "number of virtual nodes to end at")
	cmd.Flags().IntSliceVar(&c.vnodes, "vnodes", nil, "comma-separated list of virtual node numbers")
	cmd.Flags().BoolVar(&c.csv, "csv", true, "print csv to standard output")
	cmd.Flags().BoolVarP(&c.silent, "silent", "s", false, "be silent")
	return cmd
}

func runDist(stdout, stderr io.Writer, c distConfig) error {
	if c.servers <= 0 || c.keys <= 0 || c.parallelism <= 0 {
		return fmt.Errorf("servers, keys and parallelism must be positive")
	}
	printf := func(f string, args ...interface{}) {
		if c.silent {
			return
		}
		fmt.Fprintf(stderr, f, args...)
	}

	// Prepare servers to be put on ring(s).
	servers := make([]string, c.servers)
	for i := range servers {
		servers[i] = uuid.NewString()
	}
	logger.Debug("servers are ready", "servers", len(servers))

	// Prepare keys to be spread across servers on ring(s).
	keys := make([][]byte, c.keys)
	seen := make(map[string]bool, c.keys)
	for i := 0; i < c.keys; {
		s := fmt.Sprintf("%016x", rand.Int63())
		if seen[s] {
			logger.Debug("key duplicated; repeat", "index", i)
			continue
		}
		seen[s] = true
		keys[i] = []byte(s)
		i++
	}
	logger.Debug("keys are ready", "keys", len(keys))

	// Prepare list of virtual node numbers. We merge here a range (from `lo`
	// to `hi`) with manually specified numbers.
	// We use tree to autofix duplicates (if any).
	var factors avl.Tree
	for _, f := range c.vnodes {
		if f > 0 {
			factors, _ = factors.Insert(factor(f))
		}
	}
	for f := c.lo; f < c.hi; f++ {
		if f > 0 {
			factors, _ = factors.Insert(factor(f))
		}
	}
	if factors.Size() == 0 {
		factors, _ = factors.Insert(factor(hashring.DefaultVirtualNodes))
	}
	logger.Debug("factors are ready", "factors", factors.Size())

	mean := float64(c.keys) / float64(c.servers)

	var (
		work    = make(chan int)
		stop    = make(chan struct{})
		done    = make(chan struct{}, c.parallelism)
		results = make(chan result, 1)
		failed  = make(chan error, c.parallelism)
	)
	for i := 0; i < c.parallelism; i++ {
		go func() {
			defer func() {
				done <- struct{}{}
			}()
			distribution := make(map[string]int, len(servers))
			fail := func(err error) {
				select {
				case failed <- err:
				default:
				}
			}
			for {
				var f int
				select {
				case <-stop:
					return
				case f = <-work:
					// Process below.
				}

				for _, id := range servers {
					distribution[id] = 0
				}
				r := hashring.Ring{
					VirtualNodes: f,
					Logger:       logger,
				}
				start := time.Now()
				var err error
				for _, id := range servers {
					if _, err = r.AddNode(hashring.Node{ID: id}); err != nil {
						break
					}
				}
				if err != nil {
					fail(err)
					continue
				}
				latency := time.Since(start)

				s := r.Snapshot()
				for _, k := range keys {
					n, err := s.Owner(k)
					if err != nil {
						fail(err)
						break
					}
					distribution[n.ID]++
				}
				var (
					variance float64
					maxDiff  float64
				)
				for _, d := range distribution {
					diff := float64(d) - mean
					variance += diff * diff
					maxDiff = math.Max(maxDiff, math.Abs(diff))
				}
				// Divide by number of servers as for mean.
				variance /= float64(c.servers)
				results <- result{
					f:       f,
					latency: latency,
					stddev:  math.Sqrt(variance),
					maxDiff: int(maxDiff),
				}
			}
		}()
	}

	go func() {
		factors.InOrder(func(x avl.Item) bool {
			select {
			case <-stop:
				return false
			case work <- int(x.(factor)):
				return true
			}
		})
		close(stop)
		for i := 0; i < c.parallelism; i++ {
			<-done
		}
		close(results)
	}()

	var t avl.Tree
	for r := range results {
		t, _ = t.Insert(r)
		printf(".")
		if n := t.Size(); n%80 == 0 {
			f := factors.Size()
			printf(
				"%d/%d(%.1f%%)\n",
				n, f,
				float64(n)/float64(f)*100, // Progress percentage.
			)
		}
	}
	printf("\n")
	select {
	case err := <-failed:
		return err
	default:
	}

	tw := tabwriter.NewWriter(stdout, 2, 2, 2, ' ', 0)
	t.InOrder(func(x avl.Item) bool {
		r := x.(result)
		var (
			devPct  = r.stddev / float64(c.keys) * 100
			diffPct = float64(r.maxDiff) / float64(c.keys) * 100
		)
		logger.Debug("distribution",
			"vnodes", r.f,
			"stddev", r.stddev,
			"stddev_pct", devPct,
			"max_diff", r.maxDiff,
			"max_diff_pct", diffPct,
			"latency", r.latency,
		)
		if c.csv {
			fmt.Fprintf(tw,
				"%d,\t%.4f,\t%.4f,\t%.2f\n",
				r.f, devPct, diffPct,
				r.latency.Seconds()*1000,
			)
		}
		return true
	})
	if err := tw.Flush(); err != nil {
		return err
	}

	printf("OK\n")
	return nil
}

type result struct {
	f       int
	latency time.Duration
	stddev  float64
	maxDiff int
}

func (r result) Compare(x avl.Item) int {
	return r.f - x.(result).f
}

type factor int

func (f factor) Compare(x avl.Item) int {
	return int(f - x.(factor))
}
